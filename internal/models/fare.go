// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package models

// Surcharges is the rule-based surcharge breakdown of a fare estimate.
type Surcharges struct {
	MTASurcharge         float64 `json:"mta_surcharge"`
	ImprovementSurcharge float64 `json:"improvement_surcharge"`
	NightSurcharge       float64 `json:"night_surcharge"`
	RushHourSurcharge    float64 `json:"rush_hour_surcharge"`
	CongestionSurcharge  float64 `json:"congestion_surcharge"`
	TotalSurcharges      float64 `json:"total_surcharges"`
	Note                 string  `json:"note,omitempty"`
}

// FareEstimate is the fare predictor output.
type FareEstimate struct {
	FareEstimate  float64    `json:"fare_estimate"`
	FareLow       float64    `json:"fare_low"`
	FareHigh      float64    `json:"fare_high"`
	DistanceMiles float64    `json:"distance_miles"`
	PickupZone    string     `json:"pickup_zone"`
	DropoffZone   string     `json:"dropoff_zone"`
	IsAirportTrip bool       `json:"is_airport_trip"`
	IsFlatFare    bool       `json:"is_flat_fare"`
	Surcharges    Surcharges `json:"surcharges"`
}

// ZoneInfo is a selectable zone with its centroid.
type ZoneInfo struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// ModelInfo describes the loaded fare model.
type ModelInfo struct {
	TrainingDate    *string            `json:"training_date"`
	Metrics         map[string]float64 `json:"metrics"`
	FeatureCount    int                `json:"feature_count"`
	TrainingSamples int64              `json:"training_samples"`
}
