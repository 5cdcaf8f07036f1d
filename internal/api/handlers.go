// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"context"
	"time"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/fare"
	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/models"
	"github.com/tomtom215/taxidash/internal/zones"
)

// TripAnalytics is the aggregation surface the handlers call.
// *database.Engine implements it.
type TripAnalytics interface {
	GetKPIs(ctx context.Context, f database.TripFilter) (*models.KPIs, error)
	GetFareBoxplot(ctx context.Context, f database.TripFilter, by string) (*models.Boxplot, error)
	GetTipHistogram(ctx context.Context, f database.TripFilter, bins int) (*models.Histogram, error)
	GetFareScatter(ctx context.Context, f database.TripFilter, sample int) ([]models.ScatterPoint, error)
	GetTemporalHeatmap(ctx context.Context, f database.TripFilter) (*models.Heatmap, error)
	GetMonthlySeries(ctx context.Context, f database.TripFilter, metric string) ([]models.SeriesPoint, error)
	GetZoneStats(ctx context.Context, f database.TripFilter, side string) (*models.ZoneStats, error)
	GetZoneClusters(ctx context.Context, f database.TripFilter, k int, side string) (*models.Clusters, error)
	GetQualityReport(ctx context.Context, f database.TripFilter) (*models.QualityReport, error)
	DateRange(ctx context.Context) models.DateRange
}

// ZoneCatalog is the zone reference data the meta and predict endpoints read.
// *zones.Service implements it.
type ZoneCatalog interface {
	Zones(ctx context.Context) ([]zones.Zone, error)
	AvailableBoroughs(ctx context.Context) ([]string, error)
	Centroids(ctx context.Context) (map[int]zones.Centroid, error)
}

// FarePredictor prices trips. *fare.Estimator implements it.
type FarePredictor interface {
	Estimate(ctx context.Context, req fare.Request) (*models.FareEstimate, error)
	ModelInfo() (*models.ModelInfo, error)
	CentroidLookup() (map[int]fare.Point, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_meta.go: health, filter options, schema
//   - handlers_analytics.go: KPI, fare, temporal, geo and quality aggregations
//   - handlers_predict.go: fare estimates, zone list, model info
type Handler struct {
	analytics TripAnalytics
	zones     ZoneCatalog
	fares     FarePredictor
	config    *config.Config
	executor  *AnalyticsExecutor
	startTime time.Time
}

// NewHandler creates a Handler. cfg may be nil in tests; the result cache is
// then disabled.
func NewHandler(analytics TripAnalytics, zoneCatalog ZoneCatalog, fares FarePredictor, cfg *config.Config) *Handler {
	cacheCfg := config.CacheConfig{}
	if cfg != nil {
		cacheCfg = cfg.Cache
	}
	return &Handler{
		analytics: analytics,
		zones:     zoneCatalog,
		fares:     fares,
		config:    cfg,
		executor:  NewAnalyticsExecutor(cacheCfg),
		startTime: time.Now(),
	}
}

// ClearCache drops every cached analytics result.
func (h *Handler) ClearCache() {
	if h.executor.Purge() {
		logging.Info().Msg("Analytics cache cleared")
	}
}
