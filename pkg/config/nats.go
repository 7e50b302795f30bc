package config

import (
	"fmt"
	"time"
)

// NatsConfig configures the optional NATS connection used to fan out
// document change signals across storefront instances.
type NatsConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NatsConfig) Validate() error {
	if c.Enabled && c.URL == "" {
		return fmt.Errorf("nats is enabled but URL is not configured")
	}
	if c.Enabled && c.Timeout <= 0 {
		return fmt.Errorf("invalid nats connect timeout: %v", c.Timeout)
	}
	return nil
}
