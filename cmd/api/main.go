// Command api is the Fantazy stats API server.
//
// Usage:
//
//	fantazy-api
//	API_PORT=8080 fantazy-api

// @title Fantazy API
// @version 1.0.0
// @description Fantasy-football stats API serving NFL players, games, weekly/seasonal/next-gen stats, betting props and user-defined player cards. Data-heavy responses are JSON-passthrough from Postgres.
// @host localhost:3001
// @BasePath /api
// @schemes http https
// @contact.name Fantazy
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/StevenLove/fantazy/internal/api"
	"github.com/StevenLove/fantazy/internal/cache"
	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/listener"
	"github.com/StevenLove/fantazy/internal/store"

	_ "github.com/StevenLove/fantazy/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(cfg.LogHandler(os.Stdout))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := newCache(ctx, cfg, logger)
	if closer, ok := appCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	fields, err := catalog.Default()
	if err != nil {
		logger.Error("Failed to load field catalog", "error", err)
		os.Exit(1)
	}

	// Start LISTEN/NOTIFY consumer for ingestion refresh events
	go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)

	// Create router
	router := api.NewRouter(store.New(pool.Pool), appCache, fields, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Fantazy API",
			"addr", addr,
			"environment", cfg.Environment,
			"season", cfg.CurrentSeason,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// newCache returns the Redis backend when REDIS_URL is set and reachable,
// otherwise the in-process cache.
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.Backend {
	if cfg.CacheEnabled && cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL, logger)
		if err == nil {
			logger.Info("Cache initialized", "backend", "redis")
			return r
		}
		logger.Warn("Redis unavailable, using in-memory cache", "error", err)
	}
	logger.Info("Cache initialized", "backend", "memory", "enabled", cfg.CacheEnabled)
	return cache.New(cfg.CacheEnabled)
}
