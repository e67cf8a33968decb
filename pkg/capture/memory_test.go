package capture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureEvent(id, webhookID string, receivedAt time.Time) *WebhookEvent {
	return &WebhookEvent{
		ID:         id,
		WebhookID:  webhookID,
		Method:     "POST",
		Path:       "/webhook/" + webhookID,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       map[string]any{"order": id},
		ReceivedAt: receivedAt,
	}
}

func TestMemoryStore_AddAndList(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.Add(ctx, captureEvent("evt-1", "hook-1", base)))
	require.NoError(t, store.Add(ctx, captureEvent("evt-2", "hook-1", base.Add(time.Second))))
	require.NoError(t, store.Add(ctx, captureEvent("evt-other", "hook-2", base)))

	events, err := store.List(ctx, "hook-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "evt-1", events[1].ID)

	empty, err := store.List(ctx, "hook-9")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_CapsHistory(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	for i := range MaxEventsPerWebhook + 10 {
		id := fmt.Sprintf("evt-%d", i)
		require.NoError(t, store.Add(ctx, captureEvent(id, "hook-1", base.Add(time.Duration(i)*time.Millisecond))))
	}

	events, err := store.List(ctx, "hook-1")
	require.NoError(t, err)
	require.Len(t, events, MaxEventsPerWebhook)

	// The oldest ten were evicted.
	assert.Equal(t, fmt.Sprintf("evt-%d", MaxEventsPerWebhook+9), events[0].ID)
	assert.Equal(t, "evt-10", events[len(events)-1].ID)
}

func TestMemoryStore_Get(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, captureEvent("evt-1", "hook-1", time.Now().UTC())))

	event, err := store.Get(ctx, "hook-1", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "POST", event.Method)

	_, err = store.Get(ctx, "hook-1", "evt-9")
	require.Error(t, err)
	assert.True(t, IsEventNotFound(err))
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, captureEvent("evt-1", "hook-1", time.Now().UTC())))
	require.NoError(t, store.Clear(ctx, "hook-1"))

	events, err := store.List(ctx, "hook-1")
	require.NoError(t, err)
	assert.Empty(t, events)
}
