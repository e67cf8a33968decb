// Package capture stores recent webhook requests for inspection and replay.
package capture

import (
	"context"
	"time"
)

// MaxEventsPerWebhook caps how many captured requests are retained per
// webhook. Older requests are evicted first.
const MaxEventsPerWebhook = 50

// WebhookEvent is one captured webhook request.
type WebhookEvent struct {
	ID         string            `json:"id"`
	WebhookID  string            `json:"webhook_id"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Headers    map[string]string `json:"headers,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Body       any               `json:"body,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Store keeps a bounded, newest-first history of requests per webhook.
type Store interface {
	Add(ctx context.Context, event *WebhookEvent) error
	List(ctx context.Context, webhookID string) ([]*WebhookEvent, error)
	Get(ctx context.Context, webhookID, eventID string) (*WebhookEvent, error)
	Clear(ctx context.Context, webhookID string) error
	HealthCheck(ctx context.Context) error
	Close() error
}
