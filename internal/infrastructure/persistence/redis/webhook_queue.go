package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/webhook"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK QUEUE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// Key layout. Each user gets a list of serialized messages; the index set
// tells the drain job which users have pending work without scanning.
const (
	// PrefixWebhookQueue is the prefix for per-user queue lists.
	PrefixWebhookQueue = "webhookq:"

	// KeyWebhookUsers is the index set of users with queued messages.
	KeyWebhookUsers = "webhookq:users"

	// QueueKeyTTL caps how long an abandoned queue key lives. Refreshed
	// on every enqueue; comfortably longer than the message MaxAge.
	QueueKeyTTL = 14 * 24 * time.Hour
)

// WebhookQueue implements webhook.Queue on Redis lists. Messages are
// pushed to the tail and popped from the head, so delivery preserves
// enqueue order per user.
type WebhookQueue struct {
	client *Client
}

// NewWebhookQueue creates a new WebhookQueue.
func NewWebhookQueue(client *Client) *WebhookQueue {
	return &WebhookQueue{client: client}
}

// queueKey generates the list key for one user's queue.
func queueKey(userID string) string {
	return PrefixWebhookQueue + userID
}

// Enqueue appends a message to the user's queue.
func (q *WebhookQueue) Enqueue(ctx context.Context, userID string, msg *webhook.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return shared.WrapError("webhook", "Enqueue", shared.ErrInvalidEntity, "message not serializable", err)
	}

	key := queueKey(userID)
	pipe := q.client.Redis().TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, QueueKeyTTL)
	pipe.SAdd(ctx, KeyWebhookUsers, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return shared.WrapError("webhook", "Enqueue", shared.ErrQueueUnavailable, "failed to enqueue message", err)
	}
	return nil
}

// Dequeue pops the oldest message from the user's queue. When the pop
// empties the queue the user is removed from the index set.
func (q *WebhookQueue) Dequeue(ctx context.Context, userID string) (*webhook.Message, error) {
	key := queueKey(userID)

	data, err := q.client.Redis().LPop(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		_ = q.client.Redis().SRem(ctx, KeyWebhookUsers, userID).Err()
		return nil, shared.NewDomainError("webhook", "Dequeue", shared.ErrNotFound, "queue is empty")
	}
	if err != nil {
		return nil, shared.WrapError("webhook", "Dequeue", shared.ErrQueueUnavailable, "failed to dequeue message", err)
	}

	var msg webhook.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		// A corrupt entry is dropped rather than wedging the queue head.
		return nil, shared.WrapError("webhook", "Dequeue", shared.ErrInvalidEntity, "malformed queued message", err)
	}

	remaining, err := q.client.Redis().LLen(ctx, key).Result()
	if err == nil && remaining == 0 {
		_ = q.client.Redis().SRem(ctx, KeyWebhookUsers, userID).Err()
	}

	return &msg, nil
}

// Users returns the IDs of users with pending messages.
func (q *WebhookQueue) Users(ctx context.Context) ([]string, error) {
	users, err := q.client.Redis().SMembers(ctx, KeyWebhookUsers).Result()
	if err != nil {
		return nil, shared.WrapError("webhook", "Users", shared.ErrQueueUnavailable, "failed to list queued users", err)
	}
	return users, nil
}

// Len returns the number of messages queued for one user.
func (q *WebhookQueue) Len(ctx context.Context, userID string) (int64, error) {
	n, err := q.client.Redis().LLen(ctx, queueKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}
