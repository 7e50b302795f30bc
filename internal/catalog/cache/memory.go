// Package cache provides catalog.Cache implementations: an in-process TTL
// cache with an injected clock, and a Redis cache with server-side expiry.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/honeyfield/storefront/pkg/clock"
)

// Memory is an in-process TTL cache for the product list. Expiry is judged
// against the injected clock, so tests can drive it with fake time.
type Memory struct {
	clk clock.Clock
	ttl time.Duration

	mu        sync.RWMutex
	products  []catalog.Product
	fetchedAt time.Time
	present   bool
}

// NewMemory creates an in-process cache with the given TTL.
func NewMemory(clk clock.Clock, ttl time.Duration) *Memory {
	return &Memory{clk: clk, ttl: ttl}
}

func (c *Memory) Get(_ context.Context) ([]catalog.Product, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.present || c.clk.Now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false, nil
	}
	return c.products, true, nil
}

func (c *Memory) Set(_ context.Context, products []catalog.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.fetchedAt = c.clk.Now()
	c.present = true
	return nil
}

func (c *Memory) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.present = false
	return nil
}
