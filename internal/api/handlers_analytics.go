// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/models"
)

// KPIs handles POST /kpis.
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	h.executor.Execute(w, r, "kpis", "", func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetKPIs(ctx, f)
	})
}

// SummaryShortText handles POST /summary/short-text.
func (h *Handler) SummaryShortText(w http.ResponseWriter, r *http.Request) {
	h.executor.Execute(w, r, "summary", "", func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		kpis, err := h.analytics.GetKPIs(ctx, f)
		if err != nil {
			return nil, err
		}
		return models.SummaryText{Text: database.SummaryText(kpis)}, nil
	})
}

// FareBoxplot handles POST /fares/boxplot?by=PU_Borough.
func (h *Handler) FareBoxplot(w http.ResponseWriter, r *http.Request) {
	params := BoxplotParams{By: getStringParam(r, "by", database.BoxplotByPickupBorough)}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	h.executor.Execute(w, r, "fares/boxplot", "by="+params.By, func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetFareBoxplot(ctx, f, params.By)
	})
}

// TipsHistogram handles POST /fares/tips-histogram?bins=N.
func (h *Handler) TipsHistogram(w http.ResponseWriter, r *http.Request) {
	bins, apiErr := getIntParam(r, "bins", 30)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	params := TipsHistogramParams{Bins: bins}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	h.executor.Execute(w, r, "fares/tips-histogram", fmt.Sprintf("bins=%d", params.Bins), func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetTipHistogram(ctx, f, params.Bins)
	})
}

// FareScatter handles POST /fares/scatter?color_by=time_of_day&sample=N.
func (h *Handler) FareScatter(w http.ResponseWriter, r *http.Request) {
	sample, apiErr := getIntParam(r, "sample", 30000)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	params := ScatterParams{
		ColorBy: getStringParam(r, "color_by", "time_of_day"),
		Sample:  sample,
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	h.executor.Execute(w, r, "fares/scatter", fmt.Sprintf("sample=%d", params.Sample), func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetFareScatter(ctx, f, params.Sample)
	})
}

// TemporalHeatmap handles POST /temporal/heatmap.
func (h *Handler) TemporalHeatmap(w http.ResponseWriter, r *http.Request) {
	h.executor.Execute(w, r, "temporal/heatmap", "", func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetTemporalHeatmap(ctx, f)
	})
}

// TemporalSeries handles POST /temporal/series?metric=M.
func (h *Handler) TemporalSeries(w http.ResponseWriter, r *http.Request) {
	params := SeriesParams{Metric: getStringParam(r, "metric", database.MetricTripCount)}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	h.executor.Execute(w, r, "temporal/series", "metric="+params.Metric, func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetMonthlySeries(ctx, f, params.Metric)
	})
}

// ZoneStats handles POST /geo/zones-stats?side=pickup|dropoff.
func (h *Handler) ZoneStats(w http.ResponseWriter, r *http.Request) {
	params := ZoneStatsParams{Side: getStringParam(r, "side", database.SidePickup)}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	h.executor.Execute(w, r, "geo/zones-stats", "side="+params.Side, func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetZoneStats(ctx, f, params.Side)
	})
}

// ZoneClusters handles POST /geo/clusters?k=N&side=pickup|dropoff.
func (h *Handler) ZoneClusters(w http.ResponseWriter, r *http.Request) {
	k, apiErr := getIntParam(r, "k", 5)
	if apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	params := ClustersParams{K: k, Side: getStringParam(r, "side", database.SidePickup)}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}

	key := fmt.Sprintf("k=%d&side=%s", params.K, params.Side)
	h.executor.Execute(w, r, "geo/clusters", key, func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetZoneClusters(ctx, f, params.K, params.Side)
	})
}

// QualityReport handles POST /quality/report.
func (h *Handler) QualityReport(w http.ResponseWriter, r *http.Request) {
	h.executor.Execute(w, r, "quality/report", "", func(ctx context.Context, f database.TripFilter) (interface{}, error) {
		return h.analytics.GetQualityReport(ctx, f)
	})
}
