// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/models"
)

// DateRange returns the first and last pickup dates across the whole
// dataset as YYYY-MM-DD. Both are nil when there are no trips. Failures are
// logged and reported as an unknown range, since the range only decorates
// the filter options.
func (e *Engine) DateRange(ctx context.Context) models.DateRange {
	plan, err := e.builder.Build(ctx, TripFilter{})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to plan date range query")
		return models.DateRange{}
	}
	if plan.IsEmpty() {
		return models.DateRange{}
	}

	// A single scan over every file; DuckDB parallelizes it internally.
	src, args := plan.SQL()
	query := fmt.Sprintf(`SELECT MIN(tpep_pickup_datetime), MAX(tpep_pickup_datetime) FROM (%s) t`, src)

	var minTS, maxTS sql.NullTime
	err = e.execute(func() error {
		return e.db.timedQuery(ctx, "date_range", query, args, func(rows *sql.Rows) error {
			return rows.Scan(&minTS, &maxTS)
		})
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to compute dataset date range")
		return models.DateRange{}
	}

	var dr models.DateRange
	if minTS.Valid {
		s := minTS.Time.Format(time.DateOnly)
		dr.Min = &s
	}
	if maxTS.Valid {
		s := maxTS.Time.Format(time.DateOnly)
		dr.Max = &s
	}
	return dr
}

// PartitionCount returns the number of partitions currently on disk.
func (e *Engine) PartitionCount(ctx context.Context) (int, error) {
	parts, err := e.catalog.Discover(ctx)
	if err != nil {
		return 0, err
	}
	return len(parts), nil
}
