package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spaced_review_scheduler/internal/app"
	"spaced_review_scheduler/internal/domain/review"
	"spaced_review_scheduler/internal/infra/config"
	idb "spaced_review_scheduler/internal/infra/database"
	"spaced_review_scheduler/internal/infra/events"
	"spaced_review_scheduler/internal/infra/httpapi"
	"spaced_review_scheduler/internal/infra/logger"
	"spaced_review_scheduler/internal/infra/queue"
	"spaced_review_scheduler/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	appLogger.WithField("environment", cfg.Environment).Info("Review scheduler starting")

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		appLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	appLogger.Info("Database connection established")

	// Repositories
	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	outcomeRepo := idb.NewPostgresOutcomeRepository(db)
	prefRepo := idb.NewPostgresPreferenceRepository(db)
	subRepo := idb.NewPostgresSubscriptionRepository(db)
	jobQueue := queue.NewPostgresQueue(db)

	// Services
	policies := review.DefaultPolicies()
	reviewService := app.NewReviewService(scheduleRepo, outcomeRepo, subRepo, policies, appLogger)
	reconcileService := app.NewReconcileService(scheduleRepo, subRepo, policies, appLogger)
	dispatchService := app.NewDispatchService(
		scheduleRepo, outcomeRepo, prefRepo, jobQueue, appLogger,
		cfg.SummaryWeekday, cfg.EnqueueAttempts, cfg.EnqueueRetryDelay,
	)

	// Tier-change events from the billing database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tierListener := events.NewTierListener(cfg.DatabaseURL, cfg.TierEventsChannel, reconcileService, appLogger)
	go func() {
		if err := tierListener.Run(ctx); err != nil && err != context.Canceled {
			appLogger.WithError(err).Error("Tier event listener stopped")
		}
	}()

	// Hourly dispatch tick
	dispatchScheduler := scheduler.NewDispatchScheduler(dispatchService, appLogger, cfg.CronSpecDispatch)
	if err := dispatchScheduler.Start(); err != nil {
		appLogger.WithError(err).Fatal("Could not start dispatch scheduler")
	}

	// HTTP API for the web layer
	mux := http.NewServeMux()
	httpapi.NewServer(reviewService, prefRepo, appLogger).Register(mux)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		appLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	appLogger.Info("Application setup complete")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Warn("HTTP server shutdown was not clean")
	}
	dispatchScheduler.Stop()
	appLogger.Info("Application shut down gracefully")
}
