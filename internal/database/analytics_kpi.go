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

// GetKPIs computes the headline numbers for f:
//
//   - total_trips: number of matching trips
//   - avg_trip_duration_min: mean trip_minutes
//   - avg_fare_per_mile: sum(fare_amount) / sum(trip_distance), 0 when no distance
//   - peak_demand_hour: hour with the most pickups
//   - busiest_borough: pickup borough with the most trips
//
// Partitions report (hour, pickup location) groups; the reduction maps
// locations to boroughs in memory. With no matching trips every field takes
// its zero value and the borough is "Unknown".
func (e *Engine) GetKPIs(ctx context.Context, f TripFilter) (*models.KPIs, error) {
	var result *models.KPIs
	err := e.execute(func() error {
		parts, err := fanOut(ctx, e, "kpis", f, e.kpiPartition)
		if err != nil {
			return fmt.Errorf("failed to compute KPIs: %w", err)
		}
		boroughs, err := e.zones.BoroughMap(ctx)
		if err != nil {
			return fmt.Errorf("failed to load borough map: %w", err)
		}
		result = reduceKPIs(parts, boroughs)
		return nil
	})
	return result, err
}

func (e *Engine) kpiPartition(ctx context.Context, p *Plan) ([]kpiCell, error) {
	src, args := p.SQL()
	query := fmt.Sprintf(`
	SELECT
		COALESCE(hour, -1) AS hour,
		COALESCE(PULocationID, -1) AS location_id,
		COUNT(*) AS trips,
		COALESCE(SUM(trip_minutes), 0) AS minutes_sum,
		COUNT(trip_minutes) AS minutes_n,
		COALESCE(SUM(fare_amount), 0) AS fare_sum,
		COALESCE(SUM(trip_distance), 0) AS dist_sum
	FROM (%s) t
	GROUP BY 1, 2`, src)

	var cells []kpiCell
	err := e.db.timedQuery(ctx, "kpis", query, args, func(rows *sql.Rows) error {
		var c kpiCell
		if err := rows.Scan(&c.Hour, &c.LocationID, &c.Trips, &c.MinutesSum, &c.MinutesN, &c.FareSum, &c.DistSum); err != nil {
			return err
		}
		cells = append(cells, c)
		return nil
	})
	return cells, err
}

// SummaryText renders KPIs as one sentence.
func SummaryText(k *models.KPIs) string {
	if k == nil || k.TotalTrips == 0 {
		return "No trips found matching the selected filters."
	}
	hour12 := k.PeakDemandHour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	ampm := "AM"
	if k.PeakDemandHour >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("Peak demand occurs around %d %s in %s with an average fare of $%.2f per mile.",
		hour12, ampm, k.BusiestBorough, k.AvgFarePerMile)
}
