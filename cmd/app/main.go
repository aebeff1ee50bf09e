package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lessonforge/internal/api/v1/router"
	"lessonforge/internal/config"
	"lessonforge/internal/logger"
	"lessonforge/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load configuration
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New("")
		l.Fatal().Msgf("Error loading config: %v", err)
	}

	logger := logger.New(cfg.Environment)
	if envErr != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	ctx := context.Background()

	// 2. Fill credentials missing from the environment from Secret Manager
	if cfg.GCPProjectID != "" {
		secrets, err := service.NewSecretManagerService(ctx, cfg.GCPProjectID, cfg.GCPCredentialsFile)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		if err := cfg.FillMissingSecrets(ctx, secrets); err != nil {
			logger.Fatal().Msgf("Failed to load secrets: %v", err)
		}
		_ = secrets.Close()
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Msgf("Invalid config: %v", err)
	}

	// 3. Build router and backends
	app, err := router.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer app.Close()

	// 4. Create HTTP server. Lesson generation blocks on video polling, so the
	// write timeout must outlast the poll budget.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
