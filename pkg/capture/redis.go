package capture

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps captured requests in a sorted set per webhook, scored by
// arrival time so trimming evicts the oldest entries.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a capture store backed by the given Redis URL.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func eventsKey(webhookID string) string {
	return "webhook:" + webhookID + ":events"
}

// Add appends a captured request and trims the set to MaxEventsPerWebhook.
func (s *RedisStore) Add(ctx context.Context, event *WebhookEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	key := eventsKey(event.WebhookID)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(event.ReceivedAt.UnixMilli()),
		Member: payload,
	})
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-MaxEventsPerWebhook-1))

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store webhook event: %w", err)
	}

	return nil
}

// List returns the captured requests of a webhook, newest first.
func (s *RedisStore) List(ctx context.Context, webhookID string) ([]*WebhookEvent, error) {
	members, err := s.client.ZRevRange(ctx, eventsKey(webhookID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}

	events := make([]*WebhookEvent, 0, len(members))

	for _, member := range members {
		var event WebhookEvent

		if err := json.Unmarshal([]byte(member), &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal webhook event: %w", err)
		}

		events = append(events, &event)
	}

	return events, nil
}

// Get returns one captured request by its ID.
func (s *RedisStore) Get(ctx context.Context, webhookID, eventID string) (*WebhookEvent, error) {
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
func (s *RedisStore) Clear(ctx context.Context, webhookID string) error {
	err := s.client.Del(ctx, eventsKey(webhookID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear webhook events: %w", err)
	}

	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
