package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Cache stores a preloaded product list with an expiry policy owned by the
// implementation (wall-clock TTL in memory, server-side TTL in Redis).
type Cache interface {
	// Get returns the cached product list and whether a fresh entry was present.
	Get(ctx context.Context) ([]Product, bool, error)
	// Set replaces the cached product list.
	Set(ctx context.Context, products []Product) error
	// Clear drops the cached product list.
	Clear(ctx context.Context) error
}

// Preloader serves the full active product list from a cache, fetching from
// the store on miss. It replaces the module-level singleton cache of the
// original storefront with an explicit object owned by the composition root,
// with explicit invalidation.
type Preloader struct {
	store  ProductStore
	cache  Cache
	logger *slog.Logger

	// fetchMu collapses concurrent misses into a single store fetch.
	fetchMu sync.Mutex
}

// NewPreloader creates a Preloader over the given store and cache.
func NewPreloader(store ProductStore, cache Cache, logger *slog.Logger) *Preloader {
	return &Preloader{
		store:  store,
		cache:  cache,
		logger: logger.With("component", "preloader"),
	}
}

// Products returns the active product list, served from cache when fresh.
// Cache failures degrade to a direct store fetch.
func (p *Preloader) Products(ctx context.Context) ([]Product, error) {
	products, ok, err := p.cache.Get(ctx)
	if err != nil {
		p.logger.Warn("catalog cache read failed", "error", err)
	}
	if ok {
		return products, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	// Another fetch may have filled the cache while we waited.
	products, ok, err = p.cache.Get(ctx)
	if err == nil && ok {
		return products, nil
	}

	products, err = p.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to preload products: %w", err)
	}
	if err := p.cache.Set(ctx, products); err != nil {
		p.logger.Warn("catalog cache write failed", "error", err)
	}
	return products, nil
}

// Invalidate drops the cached product list; the next Products call refetches.
func (p *Preloader) Invalidate(ctx context.Context) {
	if err := p.cache.Clear(ctx); err != nil {
		p.logger.Warn("catalog cache clear failed", "error", err)
	}
}
