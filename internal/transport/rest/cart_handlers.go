package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/honeyfield/storefront/internal/cartsync"
	"github.com/honeyfield/storefront/internal/docstore"
	"github.com/honeyfield/storefront/pkg/web"
)

// AddToCartDto is the request body for adding a product to the cart.
// Quantity is additive: repeated adds accumulate.
type AddToCartDto struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int32  `json:"quantity"  validate:"required,gt=0"`
}

// UpdateQuantityDto is the request body for setting a cart line's quantity to
// an exact value. Zero deletes the line, so the field is a pointer to keep
// "0" distinguishable from "absent".
type UpdateQuantityDto struct {
	Quantity *int32 `json:"quantity" validate:"required"`
}

// CartLineDto is one cart line as rendered to the storefront.
type CartLineDto struct {
	ProductID string    `json:"productId"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartDto is the full mirrored cart.
type CartDto struct {
	Items []CartLineDto `json:"items"`
	Total int32         `json:"total"`
}

// FavoriteDto is one favorite mark as rendered to the storefront.
type FavoriteDto struct {
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetCart returns the caller's mirrored cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, toCartDto(sess))
}

// AddToCart adds the requested quantity of a product to the caller's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var dto AddToCartDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateDto(w, r, dto) {
		return
	}

	result, err := sess.AddToCart(r.Context(), dto.ProductID, dto.Quantity)
	if err != nil {
		h.respondCartError(w, r, err, "Failed to add product to cart")
		return
	}
	mLogger.DebugContext(r.Context(), "Added to cart",
		"product_id", dto.ProductID, "action", result.Action, "new_quantity", result.NewQuantity)
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// UpdateCartQuantity sets the cart line's quantity to an exact value;
// zero or less removes the line.
func (h *Handler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	productID := r.PathValue("productID")

	var dto UpdateQuantityDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateDto(w, r, dto) {
		return
	}

	if err := sess.UpdateCartQuantity(r.Context(), productID, *dto.Quantity); err != nil {
		h.respondCartError(w, r, err, "Failed to update cart quantity")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, toCartDto(sess))
}

// RemoveFromCart deletes the cart line for the product. Removing an absent
// line succeeds.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.RemoveFromCart(r.Context(), r.PathValue("productID")); err != nil {
		h.respondCartError(w, r, err, "Failed to remove product from cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, toCartDto(sess))
}

// ClearCart removes every line from the caller's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := sess.ClearCart(r.Context()); err != nil {
		h.respondCartError(w, r, err, "Failed to clear cart")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusNoContent, nil)
}

// ListFavorites returns the caller's mirrored favorite marks.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	marks := sess.Favorites()
	dtos := make([]FavoriteDto, len(marks))
	for i, mark := range marks {
		dtos[i] = FavoriteDto{ProductID: mark.ProductID, CreatedAt: mark.CreatedAt}
	}
	web.RespondJSON(w, mLogger, http.StatusOK, dtos)
}

// ToggleFavorite flips the favorite mark for the product and reports which
// way it flipped.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := sess.ToggleFavorite(r.Context(), r.PathValue("productID"))
	if err != nil {
		h.respondCartError(w, r, err, "Failed to toggle favorite")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// validateDto validates a request DTO and writes field errors on failure.
func (h *Handler) validateDto(w http.ResponseWriter, r *http.Request, dto any) bool {
	mLogger := h.loggerWithReqID(r)
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request")
		return false
	}
	return true
}

func (h *Handler) respondCartError(w http.ResponseWriter, r *http.Request, err error, message string) {
	mLogger := h.loggerWithReqID(r)
	if errors.Is(err, cartsync.ErrUnauthenticated) {
		web.RespondError(w, mLogger, http.StatusUnauthorized, "Unauthorized")
		return
	}
	mLogger.ErrorContext(r.Context(), message, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, message)
}

func toCartDto(sess *cartsync.Session) CartDto {
	lines := sess.CartLines()
	items := make([]CartLineDto, len(lines))
	for i, line := range lines {
		items[i] = toCartLineDto(line)
	}
	return CartDto{Items: items, Total: sess.CartTotal()}
}

func toCartLineDto(line docstore.CartLine) CartLineDto {
	return CartLineDto{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}
}
