package config

import (
	"fmt"
	"strings"
	"time"
)

// ChatConfig points at the external chatbot backend. The storefront only
// relays requests to it; the protocol is owned by the remote service.
type ChatConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ChatConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("chat base URL is not configured")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("chat base URL must be an http(s) URL: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid chat client timeout: %v", c.Timeout)
	}
	return nil
}
