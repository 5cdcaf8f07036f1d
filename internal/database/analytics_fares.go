// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/tomtom215/taxidash/internal/database/query"
	"github.com/tomtom215/taxidash/internal/models"
)

// BoxplotByPickupBorough is the only supported boxplot grouping.
const BoxplotByPickupBorough = "PU_Borough"

// Fare-per-mile values outside (0, 100) are treated as outliers.
const maxFarePerMile = 100

// GetFareBoxplot returns fare-per-mile quantiles (5, 25, 50, 75, 95) per
// pickup borough, sorted by borough. Quantiles use linear interpolation.
// Trips whose pickup zone has no borough are dropped.
func (e *Engine) GetFareBoxplot(ctx context.Context, f TripFilter, by string) (*models.Boxplot, error) {
	if by != BoxplotByPickupBorough {
		return nil, fmt.Errorf("%w: unsupported boxplot grouping %q", ErrInvalidFilter, by)
	}

	result := &models.Boxplot{By: by, Series: []models.BoxplotSeries{}}
	err := e.execute(func() error {
		boroughs, err := e.zones.BoroughMap(ctx)
		if err != nil {
			return fmt.Errorf("failed to load borough map: %w", err)
		}
		if len(boroughs) == 0 {
			return nil
		}

		plan, err := e.builder.Build(ctx, f)
		if err != nil {
			return err
		}
		// Exact quantiles do not merge across partitions, so this runs as one
		// query over the whole plan and DuckDB parallelizes the scan itself.
		src, args := plan.SQL()
		q := fmt.Sprintf(`
		WITH zone_boroughs(location_id, borough) AS (VALUES %s)
		SELECT z.borough,
			quantile_cont(t.fare_per_mile, 0.05),
			quantile_cont(t.fare_per_mile, 0.25),
			quantile_cont(t.fare_per_mile, 0.50),
			quantile_cont(t.fare_per_mile, 0.75),
			quantile_cont(t.fare_per_mile, 0.95)
		FROM (%s) t
		JOIN zone_boroughs z ON t.PULocationID = z.location_id
		WHERE t.fare_per_mile > 0 AND t.fare_per_mile < %d
		GROUP BY z.borough
		ORDER BY z.borough`, boroughValues(boroughs), src, maxFarePerMile)

		err = e.db.timedQuery(ctx, "boxplot", q, args, func(rows *sql.Rows) error {
			var s models.BoxplotSeries
			if err := rows.Scan(&s.Name, &s.Q05, &s.Q25, &s.Q50, &s.Q75, &s.Q95); err != nil {
				return err
			}
			s.Q05, s.Q25, s.Q50 = round(s.Q05, 2), round(s.Q25, 2), round(s.Q50, 2)
			s.Q75, s.Q95 = round(s.Q75, 2), round(s.Q95, 2)
			result.Series = append(result.Series, s)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to compute fare boxplot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// boroughValues renders the borough map as a VALUES list in LocationID order.
func boroughValues(boroughs map[int]string) string {
	ids := make([]int, 0, len(boroughs))
	for id := range boroughs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rows := make([]string, len(ids))
	for i, id := range ids {
		rows[i] = fmt.Sprintf("(%d, %s)", id, query.Literal(boroughs[id]))
	}
	return strings.Join(rows, ", ")
}

// GetTipHistogram counts tip_pct, clipped to [0, 1], into bins equal-width
// bins. Every bin is half-open except the last, which also holds 1.0.
// Trips without a tip percentage are not counted.
func (e *Engine) GetTipHistogram(ctx context.Context, f TripFilter, bins int) (*models.Histogram, error) {
	if bins < 1 {
		return nil, fmt.Errorf("%w: bins must be positive, got %d", ErrInvalidFilter, bins)
	}

	var result *models.Histogram
	err := e.execute(func() error {
		parts, err := fanOut(ctx, e, "tip_histogram", f, func(ctx context.Context, p *Plan) ([]int64, error) {
			return e.histogramPartition(ctx, p, bins)
		})
		if err != nil {
			return fmt.Errorf("failed to compute tip histogram: %w", err)
		}
		result = &models.Histogram{
			BinEdges: binEdges(bins),
			Counts:   sumBins(parts, bins),
		}
		return nil
	})
	return result, err
}

func (e *Engine) histogramPartition(ctx context.Context, p *Plan, bins int) ([]int64, error) {
	src, args := p.SQL()
	q := fmt.Sprintf(`
	SELECT LEAST(CAST(FLOOR(LEAST(GREATEST(tip_pct, 0.0), 1.0) * %d) AS INTEGER), %d) AS bin, COUNT(*)
	FROM (%s) t
	WHERE tip_pct IS NOT NULL AND NOT isnan(tip_pct)
	GROUP BY bin`, bins, bins-1, src)

	counts := make([]int64, bins)
	err := e.db.timedQuery(ctx, "tip_histogram", q, args, func(rows *sql.Rows) error {
		var bin int
		var n int64
		if err := rows.Scan(&bin, &n); err != nil {
			return err
		}
		if bin >= 0 && bin < bins {
			counts[bin] += n
		}
		return nil
	})
	return counts, err
}

// GetFareScatter returns distance/fare points for trips with positive
// distance and fare and a known tip percentage, capped at sample points.
//
// Rows are counted per partition first. When there are more than sample,
// row positions are drawn with a generator seeded with SampleSeed, so the
// same dataset and filter always yield the same points, in dataset order.
func (e *Engine) GetFareScatter(ctx context.Context, f TripFilter, sample int) ([]models.ScatterPoint, error) {
	if sample < 1 {
		return nil, fmt.Errorf("%w: sample must be positive, got %d", ErrInvalidFilter, sample)
	}

	var result []models.ScatterPoint
	err := e.execute(func() error {
		plan, err := e.builder.Build(ctx, f)
		if err != nil {
			return err
		}
		parts := plan.Partitions()

		counts, err := runPartitions(ctx, e.pool, parts, e.scatterCount)
		if err != nil {
			return fmt.Errorf("failed to count scatter rows: %w", err)
		}

		var total int64
		offsets := make(map[*Plan]int64, len(parts))
		for i, p := range parts {
			offsets[p] = total
			total += counts[i]
		}
		keep := sampleIndices(total, int64(sample))

		points, err := runPartitions(ctx, e.pool, parts, func(ctx context.Context, p *Plan) ([]models.ScatterPoint, error) {
			return e.scatterPartition(ctx, p, offsets[p], keep)
		})
		if err != nil {
			return fmt.Errorf("failed to compute fare scatter: %w", err)
		}

		result = make([]models.ScatterPoint, 0, min(total, int64(sample)))
		for _, pts := range points {
			result = append(result, pts...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

const scatterWhere = "trip_distance > 0 AND fare_amount > 0 AND tip_pct IS NOT NULL AND NOT isnan(tip_pct)"

func (e *Engine) scatterCount(ctx context.Context, p *Plan) (int64, error) {
	src, args := p.SQL()
	q := fmt.Sprintf(`SELECT COUNT(*) FROM (%s) t WHERE %s`, src, scatterWhere)

	var n int64
	err := e.db.timedQuery(ctx, "scatter_count", q, args, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	return n, err
}

// scatterPartition streams the partition's qualifying rows in dataset order
// and keeps those whose global position is in keep. A nil keep keeps all.
func (e *Engine) scatterPartition(ctx context.Context, p *Plan, offset int64, keep map[int64]struct{}) ([]models.ScatterPoint, error) {
	src, args := p.SQL()
	q := fmt.Sprintf(`
	SELECT trip_distance, fare_amount, COALESCE(hour, -1), tip_pct
	FROM (%s) t
	WHERE %s
	ORDER BY %s, %s`, src, scatterWhere, colFilename, colFileRowNumber)

	var points []models.ScatterPoint
	pos := offset
	err := e.db.timedQuery(ctx, "scatter", q, args, func(rows *sql.Rows) error {
		var distance, fare, tip float64
		var hour int
		if err := rows.Scan(&distance, &fare, &hour, &tip); err != nil {
			return err
		}
		idx := pos
		pos++
		if keep != nil {
			if _, ok := keep[idx]; !ok {
				return nil
			}
		}
		points = append(points, models.ScatterPoint{
			Distance: round(distance, 2),
			Fare:     round(fare, 2),
			TOD:      timeOfDay(hour),
			TipPct:   round(tip, 2),
		})
		return nil
	})
	return points, err
}

// sampleIndices draws k distinct positions from [0, n) using Floyd's
// algorithm. It returns nil when n <= k, meaning every row is kept.
func sampleIndices(n, k int64) map[int64]struct{} {
	if n <= k {
		return nil
	}
	r := rand.New(rand.NewPCG(SampleSeed, SampleSeed))
	chosen := make(map[int64]struct{}, k)
	for j := n - k; j < n; j++ {
		t := r.Int64N(j + 1)
		if _, ok := chosen[t]; ok {
			chosen[j] = struct{}{}
		} else {
			chosen[t] = struct{}{}
		}
	}
	return chosen
}
