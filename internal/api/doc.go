// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package api provides the HTTP REST API layer for Taxidash.

Every endpoint lives under /api/v1 and answers with the models.APIResponse
envelope. Analytics endpoints take a filter body (see FilterRequest) and run
through AnalyticsExecutor, which validates the filter, consults an LRU result
cache and maps service errors onto status codes.

Endpoints:

	GET  /meta/health, /meta/filters, /meta/schema
	POST /kpis, /summary/short-text
	POST /fares/boxplot, /fares/tips-histogram, /fares/scatter
	POST /temporal/heatmap, /temporal/series
	POST /geo/zones-stats, /geo/clusters
	POST /quality/report
	POST /predict/fare
	GET  /predict/zones, /predict/model-info

Prometheus metrics are served at /metrics outside the versioned prefix.

Status codes:

  - 400: validation failures, malformed filters, unknown zones
  - 503: dataset, reference data or fare model unavailable
  - 500: anything else

Middleware (in order): request ID, real IP, panic recovery, CORS, then for
/api/v1 rate limiting, request metrics, timeout and gzip compression.
*/
package api
