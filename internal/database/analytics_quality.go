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

// Speed outside [minPlausibleMPH, maxPlausibleMPH] is implausible.
const (
	minPlausibleMPH = 1.0
	maxPlausibleMPH = 80.0
)

// invalidSpeedSQL flags implausible speeds. A zero duration is infinite
// speed unless the distance is also zero; null inputs are never flagged.
var invalidSpeedSQL = fmt.Sprintf(`CASE
		WHEN trip_minutes IS NULL OR trip_distance IS NULL THEN false
		WHEN trip_minutes = 0 THEN trip_distance <> 0
		ELSE trip_distance / (trip_minutes / 60.0) > %g OR trip_distance / (trip_minutes / 60.0) < %g
	END`, maxPlausibleMPH, minPlausibleMPH)

// GetQualityReport measures data quality on the filtered rows. Percentages
// are of rows_total. rows_after_filters counts rows with none of the three
// issues, so a row with several issues is removed once.
func (e *Engine) GetQualityReport(ctx context.Context, f TripFilter) (*models.QualityReport, error) {
	var result *models.QualityReport
	err := e.execute(func() error {
		parts, err := fanOut(ctx, e, "quality", f, e.qualityPartition)
		if err != nil {
			return fmt.Errorf("failed to compute quality report: %w", err)
		}
		var total qualityCounts
		for _, p := range parts {
			total = total.add(p)
		}
		result = total.report()
		return nil
	})
	return result, err
}

func (e *Engine) qualityPartition(ctx context.Context, p *Plan) (qualityCounts, error) {
	src, args := p.SQL()
	query := fmt.Sprintf(`
	SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE zero_distance) AS zero_distance,
		COUNT(*) FILTER (WHERE negative_fare) AS negative_fare,
		COUNT(*) FILTER (WHERE invalid_speed) AS invalid_speed,
		COUNT(*) FILTER (WHERE zero_distance OR negative_fare OR invalid_speed) AS any_issue
	FROM (
		SELECT
			COALESCE(trip_distance <= 0, false) AS zero_distance,
			COALESCE(fare_amount < 0, false) AS negative_fare,
			%s AS invalid_speed
		FROM (%s) t
	) flagged`, invalidSpeedSQL, src)

	var q qualityCounts
	err := e.db.timedQuery(ctx, "quality", query, args, func(rows *sql.Rows) error {
		return rows.Scan(&q.Total, &q.ZeroDistance, &q.NegativeFare, &q.InvalidSpeed, &q.AnyIssue)
	})
	return q, err
}
