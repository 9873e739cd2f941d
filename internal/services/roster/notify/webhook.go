package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookConfig configures the announcement webhook endpoint and HTTP behavior.
type WebhookConfig struct {
	URL        string
	HTTPClient *http.Client
}

// WebhookSink posts announcement copy to a chat webhook as a JSON content
// message, matching the Discord-compatible webhook body shape.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink builds a webhook sink for the configured endpoint.
func NewWebhookSink(cfg WebhookConfig) (*WebhookSink, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &WebhookSink{url: endpoint, client: client}, nil
}

// Deliver posts one announcement line to the webhook endpoint.
func (s *WebhookSink) Deliver(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return fmt.Errorf("read webhook error body: %w", err)
		}
		return fmt.Errorf("webhook request status %d: %s", res.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
