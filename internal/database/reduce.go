// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/taxidash/internal/models"
)

// Reducers combine per-partition partial results. They are pure functions of
// their inputs so the merge order never changes the answer.

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// sumBins adds partition bin vectors element-wise.
func sumBins(parts [][]int64, bins int) []int64 {
	out := make([]int64, bins)
	for _, part := range parts {
		for i := 0; i < bins && i < len(part); i++ {
			out[i] += part[i]
		}
	}
	return out
}

// binEdges returns bins+1 equal-width edges over [0, 1].
func binEdges(bins int) []float64 {
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = round(float64(i)/float64(bins), 3)
	}
	return edges
}

// zoneAgg is a decomposable per-location partial: sums and counts, never means.
type zoneAgg struct {
	Trips   int64
	FareSum float64
	FareN   int64
	TipSum  float64
	TipN    int64
}

func mergeZoneAggs(parts []map[int]zoneAgg) map[int]zoneAgg {
	out := make(map[int]zoneAgg)
	for _, part := range parts {
		for id, a := range part {
			acc := out[id]
			acc.Trips += a.Trips
			acc.FareSum += a.FareSum
			acc.FareN += a.FareN
			acc.TipSum += a.TipSum
			acc.TipN += a.TipN
			out[id] = acc
		}
	}
	return out
}

// zoneStats turns merged partials into rows sorted by LocationID.
func zoneStats(merged map[int]zoneAgg) []models.ZoneStat {
	ids := make([]int, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	stats := make([]models.ZoneStat, 0, len(ids))
	for _, id := range ids {
		a := merged[id]
		stats = append(stats, models.ZoneStat{
			LocationID: id,
			Trips:      a.Trips,
			AvgFare:    round(safeDiv(a.FareSum, float64(a.FareN)), 2),
			AvgTipPct:  round(safeDiv(a.TipSum, float64(a.TipN)), 2),
		})
	}
	return stats
}

// mergeCounts sums per-key counts.
func mergeCounts(parts []map[int]int64) map[int]int64 {
	out := make(map[int]int64)
	for _, part := range parts {
		for k, n := range part {
			out[k] += n
		}
	}
	return out
}

// kpiCell is one (hour, pickup location) group of a partition.
type kpiCell struct {
	Hour       int // -1 when hour is null
	LocationID int // -1 when PULocationID is null
	Trips      int64
	MinutesSum float64
	MinutesN   int64
	FareSum    float64
	DistSum    float64
}

// reduceKPIs folds KPI cells from every partition into the headline numbers.
// Peak hour ties go to the smallest hour; busiest borough ties go to the
// alphabetically first name, and "Unknown" is used when no pickup maps to a
// borough.
func reduceKPIs(parts [][]kpiCell, boroughs map[int]string) *models.KPIs {
	var total, minutesN int64
	var minutesSum, fareSum, distSum float64
	hourCounts := make(map[int]int64)
	boroughCounts := make(map[string]int64)

	for _, cells := range parts {
		for _, c := range cells {
			total += c.Trips
			minutesSum += c.MinutesSum
			minutesN += c.MinutesN
			fareSum += c.FareSum
			distSum += c.DistSum
			if c.Hour >= 0 {
				hourCounts[c.Hour] += c.Trips
			}
			if b, ok := boroughs[c.LocationID]; ok {
				boroughCounts[b] += c.Trips
			}
		}
	}

	if total == 0 {
		return &models.KPIs{BusiestBorough: models.UnknownBorough}
	}

	kpis := &models.KPIs{
		AvgTripDurationMin: round(safeDiv(minutesSum, float64(minutesN)), 2),
		AvgFarePerMile:     round(safeDiv(fareSum, distSum), 2),
		TotalTrips:         total,
		PeakDemandHour:     argmaxInt(hourCounts),
		BusiestBorough:     models.UnknownBorough,
	}
	if len(boroughCounts) > 0 {
		kpis.BusiestBorough = argmaxString(boroughCounts)
	}
	return kpis
}

// heatmapCell is one (dow, hour) group of a partition.
type heatmapCell struct {
	Dow   int
	Hour  int
	Trips int64
}

// reduceHeatmap builds the zero-filled 7x24 matrix.
func reduceHeatmap(parts [][]heatmapCell) *models.Heatmap {
	hm := models.NewHeatmap()
	for _, cells := range parts {
		for _, c := range cells {
			if c.Dow < 0 || c.Dow > 6 || c.Hour < 0 || c.Hour > 23 {
				continue
			}
			hm.Matrix[c.Dow][c.Hour] += c.Trips
		}
	}
	for _, row := range hm.Matrix {
		for _, v := range row {
			if v > hm.Max {
				hm.Max = v
			}
		}
	}
	return hm
}

// seriesAgg is one calendar month of a partition.
type seriesAgg struct {
	Trips   int64
	FareSum float64
	FareN   int64
	TipSum  float64
	TipN    int64
}

// reduceSeries merges monthly partials and projects metric.
func reduceSeries(parts []map[string]seriesAgg, metric string) []models.SeriesPoint {
	merged := make(map[string]seriesAgg)
	for _, part := range parts {
		for k, a := range part {
			acc := merged[k]
			acc.Trips += a.Trips
			acc.FareSum += a.FareSum
			acc.FareN += a.FareN
			acc.TipSum += a.TipSum
			acc.TipN += a.TipN
			merged[k] = acc
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	points := make([]models.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		a := merged[k]
		var v float64
		switch metric {
		case MetricAvgFare:
			if a.FareN == 0 {
				continue
			}
			v = round(a.FareSum/float64(a.FareN), 2)
		case MetricAvgTipPct:
			if a.TipN == 0 {
				continue
			}
			v = round(a.TipSum/float64(a.TipN), 2)
		default:
			v = float64(a.Trips)
		}
		points = append(points, models.SeriesPoint{Month: k, Value: v})
	}
	return points
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// qualityCounts are the row counts behind a quality report.
type qualityCounts struct {
	Total        int64
	ZeroDistance int64
	NegativeFare int64
	InvalidSpeed int64
	AnyIssue     int64
}

func (q qualityCounts) add(o qualityCounts) qualityCounts {
	return qualityCounts{
		Total:        q.Total + o.Total,
		ZeroDistance: q.ZeroDistance + o.ZeroDistance,
		NegativeFare: q.NegativeFare + o.NegativeFare,
		InvalidSpeed: q.InvalidSpeed + o.InvalidSpeed,
		AnyIssue:     q.AnyIssue + o.AnyIssue,
	}
}

func (q qualityCounts) report() *models.QualityReport {
	pct := func(n int64) float64 {
		if q.Total == 0 {
			return 0
		}
		return round(100*float64(n)/float64(q.Total), 2)
	}
	return &models.QualityReport{
		RowsTotal:        q.Total,
		RowsAfterFilters: q.Total - q.AnyIssue,
		PctZeroDistance:  pct(q.ZeroDistance),
		PctNegativeFare:  pct(q.NegativeFare),
		PctInvalidSpeed:  pct(q.InvalidSpeed),
	}
}

// timeOfDay buckets a pickup hour.
func timeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour <= 11:
		return "morning"
	case hour >= 12 && hour <= 17:
		return "afternoon"
	case hour >= 18 && hour <= 21:
		return "evening"
	default:
		return "night"
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// argmaxInt returns the key with the largest count, smallest key on ties.
func argmaxInt(counts map[int]int64) int {
	best, bestN, found := 0, int64(-1), false
	for k, n := range counts {
		if !found || n > bestN || (n == bestN && k < best) {
			best, bestN, found = k, n, true
		}
	}
	return best
}

// argmaxString returns the key with the largest count, first name on ties.
func argmaxString(counts map[string]int64) string {
	best, bestN, found := "", int64(-1), false
	for k, n := range counts {
		if !found || n > bestN || (n == bestN && k < best) {
			best, bestN, found = k, n, true
		}
	}
	return best
}
