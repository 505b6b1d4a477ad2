// Package main is the entry point for the progression engine API server.
//
// The API serves the write path (enrollment, activity submissions,
// assessments, course completion) and the read path (dashboards,
// outlines, certificate verification). Side effects triggered by
// progression writes flow through the in-process event bus; outbound
// notifications are queued for the worker to deliver.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/config"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/command"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/eventhandler"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/query"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/application/saga"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/achievement"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/progress"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/domain/shared"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/external/webhooksink"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/messaging"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/persistence/postgres"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/persistence/redis"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/infrastructure/service"
	httpiface "github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/interface/http"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/internal/interface/http/handlers"
	"github.com/prettyinpurple2021/courses-with-lessons-main-sub002/pkg/logger"
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

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting progression engine API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
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

	if cfg.Database.MigrateOnStart {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

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
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	courseRepo := postgres.NewCourseRepository(dbConn)
	enrollmentRepo := postgres.NewEnrollmentRepository(dbConn)
	lessonRepo := postgres.NewLessonProgressRepository(dbConn)
	submissionRepo := postgres.NewSubmissionRepository(dbConn)
	projectRepo := postgres.NewProjectRepository(dbConn)
	examRepo := postgres.NewExamResultRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	certificateRepo := postgres.NewCertificateRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	// Synchronous mode so the completion cascade observes events in
	// publish order.
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. OUTBOUND NOTIFICATIONS
	// ─────────────────────────────────────────────────────────────────────────
	var notifier eventhandler.Notifier = eventhandler.NopNotifier{}
	if cfg.Webhook.Endpoint != "" {
		sinkConfig := webhooksink.DefaultClientConfig(cfg.Webhook.Endpoint, cfg.Webhook.Secret)
		sinkConfig.Timeout = cfg.Webhook.RequestTimeout
		sinkConfig.Logger = log
		sink := webhooksink.NewClient(sinkConfig)

		queue := redis.NewWebhookQueue(redisClient)
		notifier = service.NewWebhookDispatcher(queue, sink, userRepo, log)
	} else {
		log.Warn("no webhook endpoint configured, outbound notifications disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. DOMAIN SERVICES & EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	access := progress.NewAccessEvaluator(courseRepo, enrollmentRepo, lessonRepo)
	submissionValidator := progress.NewSubmissionValidator()
	grader := progress.NewGradingEngine()
	achievementFlow := saga.NewAchievementFlowSaga(achievementRepo, achievement.NewEvaluator(), eventBus)

	onLessonCompleted := eventhandler.NewOnLessonCompletedHandler(lessonRepo, achievementFlow, notifier, log)
	onCourseCompleted := eventhandler.NewOnCourseCompletedHandler(certificateRepo, enrollmentRepo, achievementFlow, notifier, eventBus, log)
	onExamSubmitted := eventhandler.NewOnExamSubmittedHandler(achievementFlow, notifier, log)

	if err := eventBus.Subscribe(shared.EventLessonCompleted, onLessonCompleted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe lesson handler: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventCourseCompleted, onCourseCompleted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe course handler: %w", err)
	}
	if err := eventBus.Subscribe(shared.EventExamSubmitted, onExamSubmitted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe exam handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	completeCourse := command.NewCompleteCourseHandler(
		courseRepo, enrollmentRepo, lessonRepo, projectRepo, examRepo, eventBus)

	deps := httpiface.Dependencies{
		RegisterHandler: command.NewRegisterHandler(userRepo, courseRepo, enrollmentRepo, eventBus),
		EnrollHandler:   command.NewEnrollHandler(courseRepo, enrollmentRepo, access, eventBus),
		SubmitActivityHandler: command.NewSubmitActivityHandler(
			courseRepo, enrollmentRepo, lessonRepo, submissionRepo,
			access, submissionValidator, completeCourse, eventBus),
		SaveVideoPositionHandler: command.NewSaveVideoPositionHandler(lessonRepo, access),
		SubmitFinalExamHandler: command.NewSubmitFinalExamHandler(
			courseRepo, enrollmentRepo, projectRepo, examRepo,
			grader, completeCourse, eventBus),
		SubmitFinalProjectHandler: command.NewSubmitFinalProjectHandler(
			courseRepo, enrollmentRepo, lessonRepo, projectRepo, eventBus),
		ReviewFinalProjectHandler: command.NewReviewFinalProjectHandler(
			courseRepo, projectRepo, completeCourse, eventBus),
		CompleteCourseHandler: completeCourse,

		GetCourseOutlineHandler: query.NewGetCourseOutlineHandler(
			courseRepo, enrollmentRepo, lessonRepo, submissionRepo),
		GetProgressSummaryHandler: query.NewGetProgressSummaryHandler(
			courseRepo, enrollmentRepo, lessonRepo, achievementRepo, certificateRepo),
		VerifyCertificateHandler: query.NewVerifyCertificateHandler(certificateRepo),

		Logger:        logger.New(logger.Options{Level: logger.ParseLevel(cfg.Observability.LogLevel)}),
		HealthChecker: newHealthChecker(cfg, dbConn, redisClient),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpiface.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout

	server := httpiface.NewServer(serverConfig, deps)
	errCh := server.StartAsync()

	log.Info("progression engine API is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// newHealthChecker wires the readiness checks for the API's backing
// services.
func newHealthChecker(cfg *config.Config, db *postgres.Connection, cache *redis.Client) handlers.HealthChecker {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
	checker.AddCheck("queue", handlers.NewQueueCheck(cache))
	return checker
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
