package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP WEBHOOKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SweepWebhooksJob discards webhook messages that aged past their
// delivery window without attempting delivery. Keeps queues for
// long-absent receivers from growing without bound.
type SweepWebhooksJob struct {
	dispatcher *service.WebhookDispatcher
	logger     *slog.Logger
	config     SweepWebhooksConfig
}

// SweepWebhooksConfig contains configuration for the sweep job.
type SweepWebhooksConfig struct {
	// Timeout is the maximum duration for a single sweep run.
	Timeout time.Duration
}

// DefaultSweepWebhooksConfig returns sensible defaults.
func DefaultSweepWebhooksConfig() SweepWebhooksConfig {
	return SweepWebhooksConfig{
		Timeout: time.Minute,
	}
}

// NewSweepWebhooksJob creates a new sweep job.
func NewSweepWebhooksJob(dispatcher *service.WebhookDispatcher, logger *slog.Logger, config SweepWebhooksConfig) *SweepWebhooksJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepWebhooksJob{
		dispatcher: dispatcher,
		logger:     logger,
		config:     config,
	}
}

// Name returns the job name.
func (j *SweepWebhooksJob) Name() string {
	return "sweep_webhooks"
}

// Description returns a human-readable description.
func (j *SweepWebhooksJob) Description() string {
	return "Discards expired webhook messages from user queues"
}

// Run executes one sweep pass.
func (j *SweepWebhooksJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	discarded, err := j.dispatcher.Sweep(ctx)
	if err != nil {
		j.logger.Error("sweep_webhooks run failed", "error", err)
		return err
	}
	if discarded > 0 {
		j.logger.Info("sweep_webhooks discarded expired messages", "count", discarded)
	}
	return nil
}
