package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plantline/plantline/internal/core/ports"
)

// WebhookSink POSTs events to an external HTTP endpoint, one request per
// event.
type WebhookSink struct {
	url       string
	authToken string
	client    *http.Client
}

// NewWebhookSink creates a webhook sink. authToken is optional; when set it
// is sent as a bearer token.
func NewWebhookSink(url, authToken string) *WebhookSink {
	return &WebhookSink{
		url:       url,
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the wire shape of a delivered event.
type envelope struct {
	Topic     string      `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publish delivers the event to the configured endpoint.
func (s *WebhookSink) Publish(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(envelope{
		Topic:     topic,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned error: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}

var _ ports.EventSink = (*WebhookSink)(nil)
