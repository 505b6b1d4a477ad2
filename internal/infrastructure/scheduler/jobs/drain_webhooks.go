// Package jobs contains implementations of scheduled background jobs.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// DRAIN WEBHOOKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// DrainWebhooksJob flushes queued webhook messages to the receiver.
// Events are queued at write time and delivered here so the receiver's
// availability never affects request latency.
type DrainWebhooksJob struct {
	dispatcher *service.WebhookDispatcher
	logger     *slog.Logger
	config     DrainWebhooksConfig

	lastRun atomic.Value // *DrainRunStats
}

// DrainWebhooksConfig contains configuration for the drain job.
type DrainWebhooksConfig struct {
	// Timeout is the maximum duration for a single drain run.
	Timeout time.Duration
}

// DefaultDrainWebhooksConfig returns sensible defaults.
func DefaultDrainWebhooksConfig() DrainWebhooksConfig {
	return DrainWebhooksConfig{
		Timeout: 2 * time.Minute,
	}
}

// DrainRunStats contains statistics from a drain run.
type DrainRunStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Delivered   int
	Dropped     int
	Expired     int
}

// NewDrainWebhooksJob creates a new drain job.
func NewDrainWebhooksJob(dispatcher *service.WebhookDispatcher, logger *slog.Logger, config DrainWebhooksConfig) *DrainWebhooksJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DrainWebhooksJob{
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *DrainWebhooksJob) Name() string {
	return "drain_webhooks"
}

// Description returns a human-readable description.
func (j *DrainWebhooksJob) Description() string {
	return "Delivers queued webhook notifications to the external receiver"
}

// Run executes one drain pass over every user queue.
func (j *DrainWebhooksJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.dispatcher.Drain(ctx)

	stats := &DrainRunStats{
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Delivered:   result.Delivered,
		Dropped:     result.Dropped,
		Expired:     result.Expired,
	}
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRun.Store(stats)

	if err != nil {
		j.logger.Error("drain_webhooks run failed",
			"duration", stats.Duration.String(),
			"delivered", stats.Delivered,
			"error", err,
		)
		return err
	}
	return nil
}

// LastRunStats returns statistics from the most recent run.
func (j *DrainWebhooksJob) LastRunStats() *DrainRunStats {
	stats := j.lastRun.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DrainRunStats)
}
