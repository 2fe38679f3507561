// Package main is the entry point for the football data gateway: a
// quota-aware proxy over API-Football with a per-user points ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/api"
	"github.com/ahmedtohamy-16/footygateway/internal/cache"
	"github.com/ahmedtohamy-16/footygateway/internal/config"
	"github.com/ahmedtohamy-16/footygateway/internal/database"
	"github.com/ahmedtohamy-16/footygateway/internal/gateway"
	"github.com/ahmedtohamy-16/footygateway/internal/jobs"
	"github.com/ahmedtohamy-16/footygateway/internal/ledger"
	"github.com/ahmedtohamy-16/footygateway/internal/ratelimit"
	"github.com/ahmedtohamy-16/footygateway/internal/upstream"
	"github.com/ahmedtohamy-16/footygateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		// Sync errors on stdout/stderr are expected and can be ignored.
		_ = log.Sync()
	}()

	log.Info("starting football gateway",
		zap.String("environment", cfg.Server.Env),
		zap.String("http_port", cfg.Server.HTTPPort),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if err := runMigrations(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Cache backend: process-local by default, Redis for multi-process
	// deployments.
	var responseCache cache.Cache
	var memoryCache *cache.MemoryCache
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		redisCache, err := cache.NewRedisCache(client)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		responseCache = redisCache
	default:
		memoryCache = cache.NewMemoryCache(log)
		responseCache = memoryCache
	}

	policy := cache.NewPolicy(cfg.Cache.TTLLive, cfg.Cache.TTLUpcoming, cfg.Cache.TTLLeague, cfg.Cache.TTLTeam)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.RequestsPerDay, log)

	client := upstream.NewClient(cfg.Upstream.APIKey, cfg.Upstream.Timeout, log)
	if cfg.Upstream.BaseURL != "" {
		client.SetBaseURL(cfg.Upstream.BaseURL)
	}

	retry := gateway.RetryPolicy{
		MaxAttempts: cfg.Upstream.MaxAttempts,
		BaseDelay:   cfg.Upstream.BaseDelay,
		MaxDelay:    cfg.Upstream.MaxDelay,
	}
	gw := gateway.New(responseCache, policy, limiter, client, retry, log)

	pointsLedger := ledger.New(db, cfg.Points, log)

	scheduler, err := jobs.NewScheduler(db, memoryCache, log)
	if err != nil {
		log.Fatal("failed to build maintenance scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	handlers := api.NewHandlers(pointsLedger, gw, limiter, db, log)
	httpServer := api.NewServer(handlers, cfg.Server.HTTPPort, log)

	httpErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(); err != nil {
			httpErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-httpErrChan:
		log.Fatal("HTTP server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server gracefully", zap.Error(err))
	}

	log.Info("shut down successfully")
}

// runMigrations runs database migrations using golang-migrate library
func runMigrations(db *database.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	// Path to migrations directory (relative to binary execution location)
	migrationsPath := "internal/database/migrations"

	if err := db.RunMigrations(migrationsPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Info("database migrations completed successfully")
	return nil
}
