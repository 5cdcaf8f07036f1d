// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: UUID request IDs, propagated into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern

Both have the func(http.Handler) http.Handler shape and plug straight into
chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
