// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/middleware"
)

// defaultRequestTimeout bounds a request when no server timeout is configured.
const defaultRequestTimeout = 2 * time.Minute

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	timeout       time.Duration
}

// NewRouter creates a Router. cfg may be nil, which selects the defaults.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	timeout := defaultRequestTimeout
	if cfg != nil {
		mwConfig = ChiMiddlewareConfigFrom(cfg.Security)
		if cfg.Server.Timeout > 0 {
			timeout = cfg.Server.Timeout
		}
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		timeout:       timeout,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)
		r.Use(chimiddleware.Timeout(router.timeout))
		r.Use(chimiddleware.Compress(5, "application/json"))

		h := router.handler

		r.Route("/meta", func(r chi.Router) {
			r.Get("/health", h.Health)
			r.Get("/filters", h.Filters)
			r.Get("/schema", h.Schema)
		})

		r.Post("/kpis", h.KPIs)
		r.Post("/summary/short-text", h.SummaryShortText)

		r.Route("/fares", func(r chi.Router) {
			r.Post("/boxplot", h.FareBoxplot)
			r.Post("/tips-histogram", h.TipsHistogram)
			r.Post("/scatter", h.FareScatter)
		})

		r.Route("/temporal", func(r chi.Router) {
			r.Post("/heatmap", h.TemporalHeatmap)
			r.Post("/series", h.TemporalSeries)
		})

		r.Route("/geo", func(r chi.Router) {
			r.Post("/zones-stats", h.ZoneStats)
			r.Post("/clusters", h.ZoneClusters)
		})

		r.Post("/quality/report", h.QualityReport)

		r.Route("/predict", func(r chi.Router) {
			r.Post("/fare", h.PredictFare)
			r.Get("/zones", h.PredictZones)
			r.Get("/model-info", h.ModelInfo)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
