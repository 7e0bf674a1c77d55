package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-session-engine/config"
	httpHandler "checkout-session-engine/internal/adapter/http/handler"
	pgStorage "checkout-session-engine/internal/adapter/storage/postgres"
	redisStorage "checkout-session-engine/internal/adapter/storage/redis"
	"checkout-session-engine/internal/core/ports"
	"checkout-session-engine/internal/service"
	"checkout-session-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Checkout Session Engine")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Stores
	sessionStore := pgStorage.NewSessionStore(pool)
	idempotencyStore := pgStorage.NewIdempotencyStore(pool)
	replayCache := redisStorage.NewReplayCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// External capabilities
	var merchantSvc ports.MerchantDataService
	switch cfg.Merchant.Mode {
	case "http":
		merchantSvc = service.NewHTTPMerchantDataService(
			cfg.Merchant.BaseURL,
			&http.Client{Timeout: cfg.Merchant.Timeout},
			log,
		)
		log.Info().Str("base_url", cfg.Merchant.BaseURL).Msg("Merchant data capability: http")
	default:
		merchantSvc = service.NewStubMerchantDataService(cfg.Merchant.TaxRateBp)
		log.Info().Msg("Merchant data capability: stub")
	}
	orderSvc := service.NewStubOrderService(cfg.Order.PermalinkBaseURL)

	// Webhook dispatcher
	sigSvc := service.NewHMACSignatureService()
	dispatcher := service.NewWebhookDispatcher(
		cfg.Webhook,
		sigSvc,
		&http.Client{Timeout: cfg.Webhook.Timeout},
		log,
	)
	if cfg.Webhook.URL == "" {
		log.Info().Msg("Webhook delivery disabled (no URL configured)")
	}

	// Core service
	checkoutSvc := service.NewCheckoutService(
		sessionStore,
		idempotencyStore,
		replayCache,
		merchantSvc,
		orderSvc,
		dispatcher,
		log,
	)

	// Health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		CheckoutSvc:    checkoutSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight webhook deliveries drain before exit.
	dispatcher.Close()

	log.Info().Msg("Server exited")
}
