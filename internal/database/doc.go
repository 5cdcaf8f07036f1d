// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package database is the query layer over the partitioned trip dataset.
//
// Trips are stored as Parquet files under a Hive-style tree
// (year=YYYY/month=MM/*.parquet). Nothing is loaded into tables: every
// request scans only the partitions its filter can touch, through an
// embedded DuckDB connection.
//
// # Layout
//
//   - catalog.go: partition discovery and date-range pruning
//   - filter.go: TripFilter, its validation and cache fingerprint
//   - plan.go, builder.go: lazy per-partition plans (scan, project, filter, sample)
//     built from a filter and compiled to SQL by the query subpackage
//   - pool.go: the process-wide worker pool partition tasks run on
//   - engine.go: fan-out over partitions behind a gobreaker circuit breaker
//   - reduce.go: partition-local results merged into final aggregates
//   - analytics_*.go: one file per endpoint family (KPIs, fares, temporal,
//     geo, quality, meta)
//
// # Aggregation
//
// Each analytics call builds a Plan, splits it into one plan per partition,
// runs the partition queries on the WorkerPool and reduces the partial
// results. Reducers only combine sums, counts and bins, so results do not
// depend on how rows are spread across partitions. Ratios (fare per mile,
// tip percentage) are ratios of sums, not means of per-trip ratios.
//
// # Errors
//
// ErrDatasetUnavailable and ErrInvalidFilter are sentinels checked with
// errors.Is by the API layer. Everything else is wrapped with the failing
// operation and surfaces as an internal error.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	pool := database.NewWorkerPool(cfg.Engine.Workers)
//	engine := database.NewEngine(db, database.NewCatalog(root), zoneService, pool, database.EngineOptions{})
//	kpis, err := engine.GetKPIs(ctx, database.TripFilter{Boroughs: []string{"Manhattan"}})
package database
