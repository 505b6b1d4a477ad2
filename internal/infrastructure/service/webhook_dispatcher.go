// Package service wires domain contracts to infrastructure: the webhook
// dispatcher that turns internal events into signed outbound deliveries.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/user"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/webhook"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDrainBatch is the number of messages one drain run pops per user
// when no explicit batch size is configured.
const DefaultDrainBatch = 50

// WebhookDispatcher implements the application layer's Notifier contract.
//
// Notify enqueues by default so a slow receiver never holds up the write
// path that produced the event. Drain and Sweep are run by the worker's
// scheduler. The envelope carries the user's external identifier; the
// internal one never leaves the system.
type WebhookDispatcher struct {
	queue    webhook.Queue
	sink     webhook.Sink
	userRepo user.Repository
	retrier  *retry.Retrier
	logger   *slog.Logger

	// DrainBatch caps how many messages Drain pops per user per run, so
	// one deep backlog cannot starve the users after it in the list.
	// Non-positive values fall back to DefaultDrainBatch. Set before the
	// scheduler starts; not safe to change while a drain is in flight.
	DrainBatch int
}

// NewWebhookDispatcher creates a new WebhookDispatcher.
func NewWebhookDispatcher(
	queue webhook.Queue,
	sink webhook.Sink,
	userRepo user.Repository,
	logger *slog.Logger,
) *WebhookDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookDispatcher{
		queue:      queue,
		sink:       sink,
		userRepo:   userRepo,
		retrier:    retry.WebhookRetrier(),
		logger:     logger.With("component", "webhook_dispatcher"),
		DrainBatch: DefaultDrainBatch,
	}
}

// Notify builds the signed envelope for an event and enqueues it for the
// next drain. When the queue is unavailable it falls back to a single
// synchronous delivery attempt rather than losing the notification.
func (d *WebhookDispatcher) Notify(ctx context.Context, userID string, eventType shared.EventType, data map[string]interface{}) error {
	u, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	envelope := webhook.NewEnvelope(eventType, u.ExternalID, data)
	msg := &webhook.Message{Envelope: envelope, EnqueuedAt: time.Now().UTC()}

	if err := d.queue.Enqueue(ctx, userID, msg); err != nil {
		d.logger.Warn("queue unavailable, delivering synchronously",
			"user_id", userID, "event_type", eventType, "error", err)
		return d.sink.Deliver(ctx, envelope)
	}
	return nil
}

// DrainResult summarizes one drain run.
type DrainResult struct {
	Delivered int
	Dropped   int
	Expired   int
}

// Drain delivers queued messages for every user with pending work,
// popping at most DrainBatch messages per user; the remainder waits for
// the next run. Each message gets a bounded retry; a message that still
// fails is dropped and logged so one dead receiver endpoint cannot wedge
// the queue forever.
func (d *WebhookDispatcher) Drain(ctx context.Context) (DrainResult, error) {
	var result DrainResult

	users, err := d.queue.Users(ctx)
	if err != nil {
		return result, err
	}

	batch := d.DrainBatch
	if batch <= 0 {
		batch = DefaultDrainBatch
	}

	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		d.drainUser(ctx, userID, batch, &result)
	}

	if result.Delivered > 0 || result.Dropped > 0 || result.Expired > 0 {
		d.logger.Info("webhook drain finished",
			"delivered", result.Delivered, "dropped", result.Dropped, "expired", result.Expired)
	}
	return result, nil
}

func (d *WebhookDispatcher) drainUser(ctx context.Context, userID string, batch int, result *DrainResult) {
	for popped := 0; popped < batch; popped++ {
		msg, err := d.queue.Dequeue(ctx, userID)
		if err != nil {
			if !shared.IsNotFound(err) {
				d.logger.Error("dequeue failed", "user_id", userID, "error", err)
			}
			return
		}

		if msg.Expired(time.Now().UTC()) {
			result.Expired++
			continue
		}

		err = d.retrier.Do(ctx, func(ctx context.Context) error {
			err := d.sink.Deliver(ctx, msg.Envelope)
			if err != nil && shared.IsRetryable(err) {
				return retry.Retryable(err)
			}
			return err
		})
		if err != nil {
			result.Dropped++
			d.logger.Error("webhook dropped after retries",
				"user_id", userID, "event_type", msg.Envelope.EventType, "error", err)
			continue
		}
		result.Delivered++
	}
}

// Sweep discards expired messages without attempting delivery. Messages
// still inside their delivery window are requeued in order.
func (d *WebhookDispatcher) Sweep(ctx context.Context) (int, error) {
	discarded := 0
	now := time.Now().UTC()

	users, err := d.queue.Users(ctx)
	if err != nil {
		return 0, err
	}

	for _, userID := range users {
		var keep []*webhook.Message
		for {
			msg, err := d.queue.Dequeue(ctx, userID)
			if err != nil {
				if !shared.IsNotFound(err) {
					d.logger.Error("dequeue failed during sweep", "user_id", userID, "error", err)
				}
				break
			}
			if msg.Expired(now) {
				discarded++
				continue
			}
			keep = append(keep, msg)
		}
		for _, msg := range keep {
			if err := d.queue.Enqueue(ctx, userID, msg); err != nil {
				d.logger.Error("requeue failed during sweep", "user_id", userID, "error", err)
			}
		}
	}

	if discarded > 0 {
		d.logger.Info("webhook sweep finished", "discarded", discarded)
	}
	return discarded, nil
}
