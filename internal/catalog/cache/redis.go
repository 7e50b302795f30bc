package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/honeyfield/storefront/internal/catalog"
	"github.com/redis/go-redis/v9"
)

const productListKey = "catalog:products"

// Redis caches the product list in Redis with server-side TTL, so multiple
// storefront instances share one preloaded catalog.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache with the given TTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context) ([]catalog.Product, bool, error) {
	data, err := c.client.Get(ctx, productListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // cache miss
		}
		return nil, false, fmt.Errorf("redis GET failed: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, productListKey).Err()
		return nil, false, fmt.Errorf("failed to unmarshal cached products: %w", err)
	}
	return products, true, nil
}

func (c *Redis) Set(ctx context.Context, products []catalog.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products for caching: %w", err)
	}
	if err := c.client.Set(ctx, productListKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (c *Redis) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, productListKey).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}
