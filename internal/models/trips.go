// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package models

// UnknownBorough names pickups whose zone has no borough.
const UnknownBorough = "Unknown"

// KPIs are the five headline dashboard numbers.
type KPIs struct {
	AvgTripDurationMin float64 `json:"avg_trip_duration_min"`
	AvgFarePerMile     float64 `json:"avg_fare_per_mile"` // sum(fare) / sum(distance)
	TotalTrips         int64   `json:"total_trips"`
	PeakDemandHour     int     `json:"peak_demand_hour"`
	BusiestBorough     string  `json:"busiest_borough"`
}

// SummaryText is a one-line narrative built from KPIs.
type SummaryText struct {
	Text string `json:"text"`
}

// BoxplotSeries holds fare-per-mile quantiles for one borough.
type BoxplotSeries struct {
	Name string  `json:"name"`
	Q05  float64 `json:"q05"`
	Q25  float64 `json:"q25"`
	Q50  float64 `json:"q50"`
	Q75  float64 `json:"q75"`
	Q95  float64 `json:"q95"`
}

// Boxplot groups BoxplotSeries by the requested dimension, sorted by name.
type Boxplot struct {
	By     string          `json:"by"`
	Series []BoxplotSeries `json:"series"`
}

// Histogram has len(BinEdges) == len(Counts)+1.
type Histogram struct {
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int64   `json:"counts"`
}

// ScatterPoint is one trip in the distance/fare scatter plot.
type ScatterPoint struct {
	Distance float64 `json:"distance"`
	Fare     float64 `json:"fare"`
	TOD      string  `json:"tod"` // morning, afternoon, evening, night
	TipPct   float64 `json:"tip_pct"`
}

// ZoneStat aggregates trips for one location.
type ZoneStat struct {
	LocationID int     `json:"LocationID"`
	Trips      int64   `json:"trips"`
	AvgFare    float64 `json:"avg_fare"`
	AvgTipPct  float64 `json:"avg_tip_pct"`
}

// ZoneStats lists ZoneStat by location for one side of the trip.
type ZoneStats struct {
	Side  string     `json:"side"`
	Stats []ZoneStat `json:"stats"`
}

// ClusterCentroid is a weighted k-means cluster center.
type ClusterCentroid struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Trips int64   `json:"trips"`
}

// Clusters is the clustering result. K is the number of clusters actually
// computed, which is never more than the number of zones with centroids.
type Clusters struct {
	K         int               `json:"k"`
	Centroids []ClusterCentroid `json:"centroids"`
}

// Heatmap is a 7x24 trip count matrix indexed [dow][hour], Monday first.
type Heatmap struct {
	Hours  []int     `json:"hours"`
	DOW    []string  `json:"dow"`
	Matrix [][]int64 `json:"matrix"`
	Max    int64     `json:"max"`
}

// DayNames labels heatmap rows.
var DayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// NewHeatmap returns an all-zero heatmap.
func NewHeatmap() *Heatmap {
	hours := make([]int, 24)
	for i := range hours {
		hours[i] = i
	}
	matrix := make([][]int64, len(DayNames))
	for i := range matrix {
		matrix[i] = make([]int64, 24)
	}
	return &Heatmap{
		Hours:  hours,
		DOW:    append([]string(nil), DayNames...),
		Matrix: matrix,
	}
}

// SeriesPoint is one month of a monthly series. Month is "YYYY-MM".
type SeriesPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// QualityReport summarizes data quality issues before cleaning.
type QualityReport struct {
	RowsTotal        int64   `json:"rows_total"`
	RowsAfterFilters int64   `json:"rows_after_filters"`
	PctZeroDistance  float64 `json:"pct_zero_distance"`
	PctNegativeFare  float64 `json:"pct_negative_fare"`
	PctInvalidSpeed  float64 `json:"pct_invalid_speed"`
}
