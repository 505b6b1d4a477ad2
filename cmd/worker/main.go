// Package main is the entry point for the background worker.
//
// The worker owns outbound webhook delivery: it periodically drains the
// per-user queues to the receiver and sweeps out messages that aged past
// their delivery window. Keeping delivery out of the API process means a
// slow receiver never affects request latency.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/config"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/external/webhooksink"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/persistence/postgres"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/persistence/redis"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/scheduler"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/scheduler/jobs"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Webhook.Endpoint == "" {
		return fmt.Errorf("WEBHOOK_ENDPOINT is required for the worker")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting progression engine worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (external ID resolution for envelopes)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (webhook queue backend)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis...")
	redisClient, err := redis.NewClient(redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection...")
		_ = redisClient.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. WEBHOOK DELIVERY PIPELINE
	// ─────────────────────────────────────────────────────────────────────────
	sinkConfig := webhooksink.DefaultClientConfig(cfg.Webhook.Endpoint, cfg.Webhook.Secret)
	sinkConfig.Timeout = cfg.Webhook.RequestTimeout
	sinkConfig.Logger = log
	sink := webhooksink.NewClient(sinkConfig)

	queue := redis.NewWebhookQueue(redisClient)
	userRepo := postgres.NewUserRepository(dbConn)
	dispatcher := service.NewWebhookDispatcher(queue, sink, userRepo, log)
	dispatcher.DrainBatch = cfg.Scheduler.DrainBatch

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	drainConfig := jobs.DefaultDrainWebhooksConfig()
	drainConfig.Timeout = cfg.Scheduler.JobTimeout
	drainJob := jobs.NewDrainWebhooksJob(dispatcher, log, drainConfig)
	if err := sched.Register(drainJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DrainInterval)); err != nil {
		return fmt.Errorf("failed to register drain job: %w", err)
	}

	sweepJob := jobs.NewSweepWebhooksJob(dispatcher, log, jobs.DefaultSweepWebhooksConfig())
	if err := sched.Register(sweepJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SweepInterval)); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	} else {
		log.Warn("scheduler disabled, worker will idle")
	}

	log.Info("progression engine worker is running",
		"drain_interval", cfg.Scheduler.DrainInterval.String(),
		"sweep_interval", cfg.Scheduler.SweepInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if sched.IsRunning() {
		log.Info("stopping scheduler...", "timeout", cfg.App.ShutdownTimeout.String())
		if err := sched.Stop(); err != nil {
			log.Error("scheduler stop failed", "error", err)
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
