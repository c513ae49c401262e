package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/speedq/internal/api"
	"github.com/eldtechnologies/speedq/internal/api/middleware"
	"github.com/eldtechnologies/speedq/internal/config"
	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	if cfg.UsesDefaultSecret() {
		logger.Warn().Msg("ROUTER_SECRET not set, using the built-in default")
	}

	ctx := context.Background()

	// Initialize Redis store
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Info().Msg("REDIS_URL not set, rate limiting disabled")
	}

	eng := engine.New(engine.Config{
		HistoryLimit: cfg.HistoryLimit,
		Cooldown:     cfg.BeaconCooldown,
		Logger:       logger,
	})

	// Create router
	router := api.NewRouter(logger, eng, redisStore, api.Options{
		RouterSecret: cfg.RouterSecret,
		RateLimit: middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		},
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Int("history_limit", cfg.HistoryLimit).
			Dur("beacon_cooldown", cfg.BeaconCooldown).
			Msg("starting speedq server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().
		Int("pending", eng.Queue().PendingLen()).
		Msg("server stopped, pending commands dropped")
}
