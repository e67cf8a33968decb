package capture

import (
	"context"
	"sync"
)

// MemoryStore is the in-process capture store used when no Redis URL is
// configured. History does not survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]*WebhookEvent // webhookID -> oldest first
}

// NewMemoryStore creates an empty in-memory capture store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string][]*WebhookEvent)}
}

// Add appends a captured request and evicts the oldest beyond MaxEventsPerWebhook.
func (s *MemoryStore) Add(_ context.Context, event *WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.events[event.WebhookID], event)
	if len(history) > MaxEventsPerWebhook {
		history = history[len(history)-MaxEventsPerWebhook:]
	}

	s.events[event.WebhookID] = history

	return nil
}

// List returns the captured requests of a webhook, newest first.
func (s *MemoryStore) List(_ context.Context, webhookID string) ([]*WebhookEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.events[webhookID]

	events := make([]*WebhookEvent, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		events = append(events, history[i])
	}

	return events, nil
}

// Get returns one captured request by its ID.
func (s *MemoryStore) Get(ctx context.Context, webhookID, eventID string) (*WebhookEvent, error) {
	events, err := s.List(ctx, webhookID)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		if event.ID == eventID {
			return event, nil
		}
	}

	return nil, ErrEventNotFound
}

// Clear drops the captured history of a webhook.
func (s *MemoryStore) Clear(_ context.Context, webhookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, webhookID)

	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
