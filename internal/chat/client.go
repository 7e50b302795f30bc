// Package chat relays requests to the external chatbot backend. The protocol
// is owned by the remote service; bodies pass through untouched in both
// directions.
package chat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is an opaque HTTP client for the chatbot backend's four endpoints:
// authenticated chat, public chat, history fetch and history clear.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a chat client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send relays an authenticated chat message. token is the caller's bearer
// token, forwarded as-is; body is the raw request payload.
func (c *Client) Send(ctx context.Context, token string, body []byte) ([]byte, error) {
	return c.roundTrip(ctx, http.MethodPost, "/api/chat", token, body)
}

// SendPublic relays a chat message for an unauthenticated visitor.
func (c *Client) SendPublic(ctx context.Context, body []byte) ([]byte, error) {
	return c.roundTrip(ctx, http.MethodPost, "/api/chat/public", "", body)
}

// History fetches the caller's chat history.
func (c *Client) History(ctx context.Context, token string) ([]byte, error) {
	return c.roundTrip(ctx, http.MethodGet, "/api/chat/history", token, nil)
}

// ClearHistory deletes the caller's chat history.
func (c *Client) ClearHistory(ctx context.Context, token string) error {
	_, err := c.roundTrip(ctx, http.MethodDelete, "/api/chat/history", token, nil)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("chat backend returned status %d", resp.StatusCode)
	}
	return payload, nil
}
