// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/taxidash/internal/cluster"
	"github.com/tomtom215/taxidash/internal/models"
)

// Trip sides for geographic aggregations.
const (
	SidePickup  = "pickup"
	SideDropoff = "dropoff"
)

// sideColumn maps a side to its location column.
func sideColumn(side string) (string, error) {
	switch side {
	case SidePickup:
		return "PULocationID", nil
	case SideDropoff:
		return "DOLocationID", nil
	}
	return "", fmt.Errorf("%w: side must be pickup or dropoff, got %q", ErrInvalidFilter, side)
}

// GetZoneStats aggregates trips per pickup or dropoff location: trip count,
// mean fare and mean tip percentage, sorted by LocationID. Trips with no
// location are skipped.
func (e *Engine) GetZoneStats(ctx context.Context, f TripFilter, side string) (*models.ZoneStats, error) {
	col, err := sideColumn(side)
	if err != nil {
		return nil, err
	}

	var result *models.ZoneStats
	err = e.execute(func() error {
		parts, err := fanOut(ctx, e, "zone_stats", f, func(ctx context.Context, p *Plan) (map[int]zoneAgg, error) {
			return e.zoneStatsPartition(ctx, p, col)
		})
		if err != nil {
			return fmt.Errorf("failed to compute zone stats: %w", err)
		}
		result = &models.ZoneStats{Side: side, Stats: zoneStats(mergeZoneAggs(parts))}
		return nil
	})
	return result, err
}

func (e *Engine) zoneStatsPartition(ctx context.Context, p *Plan, col string) (map[int]zoneAgg, error) {
	src, args := p.SQL()
	q := fmt.Sprintf(`
	SELECT %[1]s,
		COUNT(*),
		COALESCE(SUM(fare_amount), 0), COUNT(fare_amount),
		COALESCE(SUM(tip_pct) FILTER (WHERE NOT isnan(tip_pct)), 0), COUNT(tip_pct) FILTER (WHERE NOT isnan(tip_pct))
	FROM (%[2]s) t
	WHERE %[1]s IS NOT NULL
	GROUP BY %[1]s`, col, src)

	out := make(map[int]zoneAgg)
	err := e.db.timedQuery(ctx, "zone_stats", q, args, func(rows *sql.Rows) error {
		var id int
		var a zoneAgg
		if err := rows.Scan(&id, &a.Trips, &a.FareSum, &a.FareN, &a.TipSum, &a.TipN); err != nil {
			return err
		}
		out[id] = a
		return nil
	})
	return out, err
}

// GetZoneClusters groups zones into at most k clusters with k-means over
// zone centroids, weighting each zone by its trip count. Zones without a
// centroid are ignored. K in the result is the number of clusters actually
// computed; coordinates are rounded to 6 decimals.
//
// No matching trips, or no trips in zones with centroids, gives an empty
// result that echoes the requested k. An empty centroid table is
// ErrNoCentroids.
func (e *Engine) GetZoneClusters(ctx context.Context, f TripFilter, k int, side string) (*models.Clusters, error) {
	col, err := sideColumn(side)
	if err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidFilter, k)
	}

	empty := &models.Clusters{K: k, Centroids: []models.ClusterCentroid{}}
	var result *models.Clusters
	err = e.execute(func() error {
		parts, err := fanOut(ctx, e, "zone_clusters", f, func(ctx context.Context, p *Plan) (map[int]int64, error) {
			return e.zoneCountsPartition(ctx, p, col)
		})
		if err != nil {
			return fmt.Errorf("failed to count trips per zone: %w", err)
		}
		counts := mergeCounts(parts)
		if len(counts) == 0 {
			result = empty
			return nil
		}

		centroids, err := e.zones.Centroids(ctx)
		if err != nil {
			return fmt.Errorf("failed to load zone centroids: %w", err)
		}
		if len(centroids) == 0 {
			return ErrNoCentroids
		}

		ids := make([]int, 0, len(counts))
		for id := range counts {
			if _, ok := centroids[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			result = empty
			return nil
		}
		sort.Ints(ids)

		points := make([]cluster.Point, len(ids))
		for i, id := range ids {
			c := centroids[id]
			points[i] = cluster.Point{X: c.Lon, Y: c.Lat, Weight: float64(counts[id])}
		}

		res, err := cluster.KMeans(points, cluster.Options{K: k, Seed: SampleSeed})
		if errors.Is(err, cluster.ErrNoPoints) {
			result = empty
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to cluster zones: %w", err)
		}

		out := &models.Clusters{K: len(res.Centers), Centroids: make([]models.ClusterCentroid, len(res.Centers))}
		for i, c := range res.Centers {
			out.Centroids[i] = models.ClusterCentroid{
				Lon:   round(c.X, 6),
				Lat:   round(c.Y, 6),
				Trips: int64(c.Weight),
			}
		}
		result = out
		return nil
	})
	return result, err
}

func (e *Engine) zoneCountsPartition(ctx context.Context, p *Plan, col string) (map[int]int64, error) {
	src, args := p.SQL()
	q := fmt.Sprintf(`
	SELECT %[1]s, COUNT(*)
	FROM (%[2]s) t
	WHERE %[1]s IS NOT NULL
	GROUP BY %[1]s`, col, src)

	out := make(map[int]int64)
	err := e.db.timedQuery(ctx, "zone_clusters", q, args, func(rows *sql.Rows) error {
		var id int
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return err
		}
		out[id] = n
		return nil
	})
	return out, err
}
