// Package rest exposes the storefront over HTTP: catalog browsing, cart and
// favorites operations, and the chat relay.
package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/honeyfield/storefront/internal/cartsync"
	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/honeyfield/storefront/internal/chat"
	"github.com/honeyfield/storefront/pkg/auth"
	"github.com/honeyfield/storefront/pkg/web"
)

type Handler struct {
	products *catalog.Preloader
	store    catalog.ProductStore
	sessions *cartsync.Manager
	chat     *chat.Client
	verifier auth.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the storefront HTTP handler.
func NewHandler(products *catalog.Preloader, store catalog.ProductStore, sessions *cartsync.Manager,
	chatClient *chat.Client, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		products: products,
		store:    store,
		sessions: sessions,
		chat:     chatClient,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the storefront.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Post("/chat/public/messages", h.SendPublicChat)

		r.Group(func(r chi.Router) {
			r.Use(Authenticator(h.verifier))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddToCart)
				r.Put("/items/{productID}", h.UpdateCartQuantity)
				r.Delete("/items/{productID}", h.RemoveFromCart)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", h.ListFavorites)
				r.Post("/{productID}/toggle", h.ToggleFavorite)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/messages", h.SendChat)
				r.Get("/history", h.ChatHistory)
				r.Delete("/history", h.ClearChatHistory)
			})
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// HealthCheck responds with a simple status to indicate the service is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// session returns the cart/favorites session for the authenticated caller.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*cartsync.Session, bool) {
	userID, ok := web.GetUserID(r.Context())
	if !ok || userID == "" {
		web.RespondError(w, h.logger, http.StatusUnauthorized, "Unauthorized: missing user")
		return nil, false
	}
	return h.sessions.Session(userID), true
}

// loggerWithReqID returns a logger enriched with the request id.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
