package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a rejected response is kept in errors.
const maxErrorBody = 4096

// Sender delivers embeds to a webhook.
type Sender interface {
	Send(ctx context.Context, webhookURL string, embeds []Embed) error
}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook error: %s", e.Status)
	}
	return fmt.Sprintf("webhook error: %s, %s", e.Status, e.Body)
}

// Client posts embeds to a Discord webhook.
type Client struct {
	httpClient *http.Client
	username   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUsername overrides the webhook's default display name.
func WithUsername(username string) ClientOption {
	return func(c *Client) {
		c.username = username
	}
}

// NewClient creates a webhook client.
//
// The default HTTP client has no timeout: a stalled webhook blocks Send until
// ctx is cancelled.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts {"embeds": embeds} to webhookURL.
func (c *Client) Send(ctx context.Context, webhookURL string, embeds []Embed) error {
	data, err := json.Marshal(Payload{Username: c.username, Embeds: embeds})
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(body)),
		}
	}
	return nil
}
