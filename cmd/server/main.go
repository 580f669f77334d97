package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/database"
	"github.com/pagehub/pagehub-backend/internal/handler"
	"github.com/pagehub/pagehub-backend/internal/logger"
	"github.com/pagehub/pagehub-backend/internal/middleware"
	"github.com/pagehub/pagehub-backend/internal/platform"
	"github.com/pagehub/pagehub-backend/internal/repository"
	"github.com/pagehub/pagehub-backend/internal/router"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/pagehub/pagehub-backend/internal/validator"
	"github.com/pagehub/pagehub-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting PageHub Backend")

	policy, err := service.ParsePolicy(cfg.Publish.Policy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PUBLISH_POLICY")
	}
	if len(cfg.RegistrationCodes) == 0 {
		log.Warn().Msg("No registration codes configured, admin sign-up is disabled")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	pageRepo := repository.NewPageRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	platformClient := platform.NewClient(cfg.Platform, log)

	authService := service.NewAuthService(cfg, rdb)
	adminService := service.NewAdminService(adminRepo, authService, cfg.RegistrationCodes, log)
	activityService := service.NewActivityService(rdb, activityRepo, log)
	pageService := service.NewPageService(pageRepo, platformClient, log)

	publisher := service.NewPublisher(platformClient)
	singlePublisher := service.NewSinglePublisher(pageRepo, publisher, log)
	dispatcher := service.NewDispatcher(pageRepo, publisher, policy, cfg.Publish.Concurrency, log)
	broker := service.NewProgressBroker(rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(adminService, activityService),
		Page:    handler.NewPageHandler(pageService, activityService),
		Publish: handler.NewPublishHandler(singlePublisher, dispatcher, broker, activityService, cfg.MaxUploadBytes),
		WS:      handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	activityWorker := worker.NewActivityWorker(rdb, activityRepo, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		activityWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	authLimiter := middleware.NewRateLimiter(middleware.NewRedisCounter(rdb), cfg.AuthRateLimit, cfg.AuthRateWindow, log)
	r := router.SetupRouter(authService, authLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().
			Str("addr", ":"+cfg.ServerPort).
			Str("publish_policy", string(policy)).
			Int("publish_concurrency", cfg.Publish.Concurrency).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. In-flight dispatches get longer
	// than plain requests since each page is an upstream call.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the activity worker and wait for its final flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
