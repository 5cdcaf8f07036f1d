// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Collectors are registered on the default registry through promauto, so
// importing the package is enough to expose them. The Record* helpers keep
// label handling in one place.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query engine
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	PartitionsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_partitions_scanned_total",
			Help: "Total number of monthly partitions scanned by aggregations",
		},
		[]string{"aggregation"},
	)

	PartitionsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trip_partitions_available",
			Help: "Number of monthly partitions found under the trips root",
		},
	)

	// Partition worker pool
	PoolActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_pool_active_workers",
			Help: "Number of pool workers currently running a partition query",
		},
	)

	PoolTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_pool_tasks_total",
			Help: "Total number of partition tasks executed by the pool",
		},
		[]string{"result"}, // "success", "error", "cancelled"
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Result cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Circuit breaker (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Fare model
	FareEstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fare_estimates_total",
			Help: "Total number of fare estimates by pricing path",
		},
		[]string{"path"}, // "model", "flat_rate", "error"
	)

	FareModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fare_model_loaded",
			Help: "1 when the fare model bundle is loaded, 0 otherwise",
		},
	)

	// Reference data
	ZonesLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zone_reference_rows",
			Help: "Rows loaded from each zone reference table",
		},
		[]string{"table"}, // "lookup", "centroids"
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup counts a hit or miss for cacheType.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordPoolTask counts one finished partition task.
func RecordPoolTask(err error, cancelled bool) {
	switch {
	case cancelled:
		PoolTasksTotal.WithLabelValues("cancelled").Inc()
	case err != nil:
		PoolTasksTotal.WithLabelValues("error").Inc()
	default:
		PoolTasksTotal.WithLabelValues("success").Inc()
	}
}

// RecordBreakerTransition updates the breaker gauge and transition counter.
func RecordBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
