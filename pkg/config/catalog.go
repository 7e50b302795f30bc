package config

import (
	"fmt"
	"time"
)

// CatalogConfig tunes the catalog preloader cache.
type CatalogConfig struct {
	CacheTTL time.Duration `koanf:"cachettl"`
}

func (c *CatalogConfig) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("catalog cache TTL is not configured")
	}
	return nil
}
