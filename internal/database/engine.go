// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/metrics"
	"github.com/tomtom215/taxidash/internal/zones"
)

// ZoneSource is the zone reference data the engine joins against.
type ZoneSource interface {
	BoroughResolver
	BoroughMap(ctx context.Context) (map[int]string, error)
	Centroids(ctx context.Context) (map[int]zones.Centroid, error)
}

// EngineOptions tunes the engine's circuit breaker.
type EngineOptions struct {
	// BreakerFailures is the number of consecutive query failures that
	// opens the breaker. Zero uses 5.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open before probing.
	// Zero uses 30s.
	BreakerTimeout time.Duration
}

// Engine runs aggregations over filtered trip plans.
//
// Every operation builds a fresh plan, splits it per partition, runs the
// partition-local queries on the shared worker pool and reduces the partial
// results. Whole operations run behind a circuit breaker so a broken dataset
// fails fast with ErrDatasetUnavailable instead of queueing more scans.
type Engine struct {
	db      *DB
	builder *QueryBuilder
	catalog *Catalog
	zones   ZoneSource
	pool    *WorkerPool
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
}

// NewEngine wires an Engine over db, catalog, zone data and pool.
func NewEngine(db *DB, catalog *Catalog, zoneSource ZoneSource, pool *WorkerPool, opts EngineOptions) *Engine {
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	cbName := "trip-engine"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= opts.BreakerFailures
			if trip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening trip engine circuit")
			}
			return trip
		},
		// Caller mistakes and cancellations say nothing about dataset health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrInvalidFilter) ||
				errors.Is(err, ErrNoCentroids) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] Trip engine state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
		},
	})

	return &Engine{
		db:      db,
		builder: NewQueryBuilder(catalog, zoneSource),
		catalog: catalog,
		zones:   zoneSource,
		pool:    pool,
		cb:      cb,
		name:    cbName,
	}
}

// Builder exposes the engine's query builder.
func (e *Engine) Builder() *QueryBuilder {
	return e.builder
}

// Catalog exposes the engine's partition catalog.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// execute runs fn with circuit breaker protection.
func (e *Engine) execute(fn func() error) error {
	_, err := e.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(e.name, "success").Inc()
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(e.name, "rejected").Inc()
		logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Trip engine request rejected")
		return fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues(e.name, "failure").Inc()
	return err
}

// fanOut builds the plan for f and runs fn once per partition sub-plan.
func fanOut[T any](ctx context.Context, e *Engine, op string, f TripFilter, fn func(context.Context, *Plan) (T, error)) ([]T, error) {
	plan, err := e.builder.Build(ctx, f)
	if err != nil {
		return nil, err
	}
	parts := plan.Partitions()
	metrics.PartitionsScanned.WithLabelValues(op).Add(float64(countPartitions(plan.scan.Files)))
	logging.Ctx(ctx).Debug().
		Str("operation", op).
		Str("plan", plan.String()).
		Bool("unfiltered", f.IsIdentity()).
		Bool("sampled", plan.Sampled()).
		Int("tasks", len(parts)).
		Msg("Executing plan")
	return runPartitions(ctx, e.pool, parts, fn)
}

func countPartitions(files []DataFile) int {
	n := 0
	for i, f := range files {
		if i == 0 || files[i-1].Partition != f.Partition {
			n++
		}
	}
	return n
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}
