// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/history"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/middleware"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
	"github.com/tomtom215/cadence/internal/upstream"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout   = 10 * time.Second
	perfSampleSize    = 1000
	slowRequestCutoff = time.Second
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("db_driver", cfg.Database.Driver).
		Str("environment", cfg.Server.Environment).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Starting Cadence")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	respCache, err := cache.Open(&cfg.Cache)
	if err != nil {
		// Close explicitly, Fatal skips deferred calls.
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
		logging.Fatal().Err(err).Msg("Failed to open response cache")
	}
	defer func() {
		if err := respCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing response cache")
		}
	}()

	client := upstream.NewClient(&cfg.Upstream)
	perf := middleware.NewPerformanceMonitor(perfSampleSize, slowRequestCutoff)

	handler := api.NewHandler(api.Dependencies{
		History:      history.NewService(db),
		Sessions:     api.UpstreamSessions(client),
		Cache:        respCache,
		DB:           db,
		BreakerState: client.State,
		Performance:  perf,
		Analytics:    cfg.Analytics,
		Version:      version,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  shutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if respCache != nil {
		tree.AddStorageService(services.NewCacheGCService(respCache, services.DefaultCacheGCInterval))
		logging.Info().Msg("Cache GC service added")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Cadence stopped")
}
