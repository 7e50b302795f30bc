package config

import (
	"fmt"
	"time"
)

// RedisConfig configures the optional Redis-backed catalog cache.
// When disabled, the storefront falls back to the in-process cache.
type RedisConfig struct {
	Enabled bool          `koanf:"enabled"`
	Addr    string        `koanf:"addr"`
	DB      int           `koanf:"db"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *RedisConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("redis is enabled but address is not configured")
	}
	if c.DB < 0 {
		return fmt.Errorf("invalid redis database index: %d", c.DB)
	}
	return nil
}
