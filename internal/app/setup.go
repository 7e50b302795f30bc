// Package app contains the application setup for the storefront.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/honeyfield/storefront/internal/cartsync"
	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/honeyfield/storefront/internal/catalog/cache"
	"github.com/honeyfield/storefront/internal/chat"
	"github.com/honeyfield/storefront/internal/config"
	"github.com/honeyfield/storefront/internal/docstore"
	"github.com/honeyfield/storefront/internal/transport/rest"
	"github.com/honeyfield/storefront/pkg/auth"
	"github.com/honeyfield/storefront/pkg/bootstrap"
	"github.com/honeyfield/storefront/pkg/clock"
	natsclient "github.com/honeyfield/storefront/pkg/nats"
	"github.com/honeyfield/storefront/pkg/server"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	Products *catalog.Preloader
	Store    catalog.ProductStore
	Sessions *cartsync.Manager
	Chat     *chat.Client
	Verifier auth.Verifier
	Logger   *slog.Logger

	closers []func()
}

// SetupDependencies wires the storefront together: the document store with
// its change notifier, the cart/favorites session manager, the catalog
// preloader with its cache, the chat relay and the token verifier.
func SetupDependencies(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	var notifier docstore.Notifier = docstore.NewLocalNotifier()
	if cfg.Nats.Enabled {
		nc, err := natsclient.NewClient(cfg.Nats.URL, cfg.Nats.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		deps.closers = append(deps.closers, nc.Close)
		notifier = docstore.NewNatsNotifier(nc, "docs", logger)
	}

	store := docstore.NewPgStore(dbPool, notifier, logger)
	deps.Sessions = cartsync.NewManager(ctx, store, logger)
	deps.closers = append(deps.closers, deps.Sessions.Close)

	deps.Store = catalog.NewPgProductStore(dbPool)
	var productCache catalog.Cache = cache.NewMemory(clock.NewRealClock(), cfg.Catalog.CacheTTL)
	if cfg.Redis.Enabled {
		redisClient, err := bootstrap.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.DB, cfg.Redis.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.closers = append(deps.closers, func() { _ = redisClient.Close() })
		productCache = cache.NewRedis(redisClient, cfg.Catalog.CacheTTL)
	}
	deps.Products = catalog.NewPreloader(deps.Store, productCache, logger)

	deps.Chat = chat.NewClient(cfg.Chat.BaseURL, cfg.Chat.Timeout)

	verifier, err := auth.NewJWTVerifier(ctx, cfg.IdP)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}
	deps.Verifier = verifier

	return deps, nil
}

// Close releases every resource acquired by SetupDependencies.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// SetupHttpHandler initializes the HTTP routes for the storefront.
// Used by tests to set up the HTTP server with the necessary middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.Products, deps.Store, deps.Sessions, deps.Chat, deps.Verifier, deps.Logger)
	handler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures the storefront HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, mux)
}
