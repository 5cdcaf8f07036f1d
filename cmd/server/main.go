// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/taxidash/internal/api"
	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/fare"
	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/metrics"
	"github.com/tomtom215/taxidash/internal/supervisor"
	"github.com/tomtom215/taxidash/internal/supervisor/services"
	"github.com/tomtom215/taxidash/internal/zones"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("trips_root", cfg.Dataset.TripsRoot).
		Str("model_path", cfg.Model.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting taxidash")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zoneService := zones.NewService(db.Conn(), cfg.Dataset.RawDir, cfg.Dataset.ArtifactsDir)
	catalog := database.NewCatalog(cfg.Dataset.TripsRoot)
	logPartitions(ctx, catalog)

	pool := database.NewWorkerPool(cfg.Engine.Workers)
	engine := database.NewEngine(db, catalog, zoneService, pool, database.EngineOptions{
		BreakerFailures: cfg.Engine.BreakerFailures,
		BreakerTimeout:  cfg.Engine.BreakerTimeout,
	})

	estimator := fare.NewEstimator(cfg.Model.Path, zoneService)
	if cfg.Model.Preload {
		estimator.Preload()
	}

	handler := api.NewHandler(engine, zoneService, estimator, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddDataService(pool)
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Int("workers", pool.Size()).Msg("Starting supervisor tree")
	for err := range tree.ServeBackground(ctx) {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Stopped")
}

// logPartitions reports what the catalog sees at startup. An empty or
// unreadable dataset is not fatal: queries report it per request.
func logPartitions(ctx context.Context, catalog *database.Catalog) {
	partitions, err := catalog.Discover(ctx)
	switch {
	case err != nil:
		logging.Warn().Err(err).Str("root", catalog.Root()).Msg("Trip dataset unavailable")
	case len(partitions) == 0:
		logging.Warn().Str("root", catalog.Root()).Msg("No trip partitions found")
	default:
		logging.Info().
			Int("partitions", len(partitions)).
			Str("first", partitions[0].String()).
			Str("last", partitions[len(partitions)-1].String()).
			Msg("Trip dataset discovered")
	}
}
