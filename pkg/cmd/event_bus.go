package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/hookflow/hookflow/pkg/capture"
	"github.com/hookflow/hookflow/pkg/channels/gochannel"
	"github.com/hookflow/hookflow/pkg/eventbus"
)

func NewEventBus(logger *slog.Logger) (eventbus.EventBus, error) {
	pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create event channel: %w", err)
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}

// NewCaptureStore builds the webhook capture store. An empty Redis URL
// selects the in-memory store.
func NewCaptureStore(redisURL string) (capture.Store, error) {
	if redisURL == "" {
		return capture.NewMemoryStore(), nil
	}

	return capture.NewRedisStore(redisURL)
}
