// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/taxidash/internal/models"
)

// Monthly series metrics.
const (
	MetricTripCount = "trip_count"
	MetricAvgFare   = "avg_fare"
	MetricAvgTipPct = "avg_tip_pct"
)

// ValidSeriesMetric reports whether metric is a supported series metric.
func ValidSeriesMetric(metric string) bool {
	switch metric {
	case MetricTripCount, MetricAvgFare, MetricAvgTipPct:
		return true
	}
	return false
}

// GetTemporalHeatmap counts trips per (day of week, hour). The matrix is
// always 7x24, Monday first, with missing cells zero-filled.
func (e *Engine) GetTemporalHeatmap(ctx context.Context, f TripFilter) (*models.Heatmap, error) {
	var result *models.Heatmap
	err := e.execute(func() error {
		parts, err := fanOut(ctx, e, "heatmap", f, e.heatmapPartition)
		if err != nil {
			return fmt.Errorf("failed to compute heatmap: %w", err)
		}
		result = reduceHeatmap(parts)
		return nil
	})
	return result, err
}

func (e *Engine) heatmapPartition(ctx context.Context, p *Plan) ([]heatmapCell, error) {
	src, args := p.SQL()
	query := fmt.Sprintf(`
	SELECT dow, hour, COUNT(*) AS trips
	FROM (%s) t
	WHERE dow IS NOT NULL AND hour IS NOT NULL
	GROUP BY dow, hour`, src)

	var cells []heatmapCell
	err := e.db.timedQuery(ctx, "heatmap", query, args, func(rows *sql.Rows) error {
		var c heatmapCell
		if err := rows.Scan(&c.Dow, &c.Hour, &c.Trips); err != nil {
			return err
		}
		cells = append(cells, c)
		return nil
	})
	return cells, err
}

// GetMonthlySeries returns one point per calendar month in ascending order.
// trip_count is the number of trips; avg_fare and avg_tip_pct are means
// rounded to 2 decimals. Months where the metric has no values are omitted.
func (e *Engine) GetMonthlySeries(ctx context.Context, f TripFilter, metric string) ([]models.SeriesPoint, error) {
	if !ValidSeriesMetric(metric) {
		return nil, fmt.Errorf("%w: unknown series metric %q", ErrInvalidFilter, metric)
	}

	var result []models.SeriesPoint
	err := e.execute(func() error {
		parts, err := fanOut(ctx, e, "series", f, e.seriesPartition)
		if err != nil {
			return fmt.Errorf("failed to compute monthly series: %w", err)
		}
		result = reduceSeries(parts, metric)
		return nil
	})
	return result, err
}

func (e *Engine) seriesPartition(ctx context.Context, p *Plan) (map[string]seriesAgg, error) {
	src, args := p.SQL()
	query := fmt.Sprintf(`
	SELECT year, month,
		COUNT(*) AS trips,
		COALESCE(SUM(fare_amount), 0) AS fare_sum,
		COUNT(fare_amount) AS fare_n,
		COALESCE(SUM(tip_pct), 0) AS tip_sum,
		COUNT(tip_pct) AS tip_n
	FROM (%s) t
	WHERE year IS NOT NULL AND month IS NOT NULL
	GROUP BY year, month`, src)

	out := make(map[string]seriesAgg)
	err := e.db.timedQuery(ctx, "series", query, args, func(rows *sql.Rows) error {
		var year, month int
		var a seriesAgg
		if err := rows.Scan(&year, &month, &a.Trips, &a.FareSum, &a.FareN, &a.TipSum, &a.TipN); err != nil {
			return err
		}
		out[monthKey(year, month)] = a
		return nil
	})
	return out, err
}
