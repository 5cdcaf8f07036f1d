// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Request structs with go-playground/validator tags.
//
// Query parameters are copied into a params struct and validated as a
// whole; POST bodies are decoded with goccy/go-json and then validated:
//
//	req := ClustersParams{Side: getStringParam(r, "side", "pickup")}
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondAPIError(w, apiErr)
//	    return
//	}

package api

import (
	"time"

	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/fare"
	"github.com/tomtom215/taxidash/internal/models"
)

// FilterRequest is the JSON body shared by every analytics endpoint. All
// fields are optional; an empty body matches every trip.
//
// Ranges are two-element arrays [min, max]. Dates are YYYY-MM-DD or RFC3339;
// a date-only date_to covers the whole day.
type FilterRequest struct {
	DateFrom      string    `json:"date_from" validate:"omitempty,isodate"`
	DateTo        string    `json:"date_to" validate:"omitempty,isodate"`
	Boroughs      []string  `json:"boroughs"`
	Hours         []int     `json:"hours" validate:"omitempty,len=2"`
	DaysOfWeek    []int     `json:"days_of_week"`
	PaymentTypes  []int     `json:"payment_types"`
	FareRange     []float64 `json:"fare_range" validate:"omitempty,len=2"`
	DistanceRange []float64 `json:"distance_range" validate:"omitempty,len=2"`
	Sample        int       `json:"sample" validate:"min=0"`
}

// ToFilter converts the request into an engine filter. Structural problems
// such as inverted ranges come back as database.ErrInvalidFilter.
func (req *FilterRequest) ToFilter() (database.TripFilter, error) {
	from, err := database.ParseDateBound(req.DateFrom, false)
	if err != nil {
		return database.TripFilter{}, err
	}
	to, err := database.ParseDateBound(req.DateTo, true)
	if err != nil {
		return database.TripFilter{}, err
	}

	f := database.TripFilter{
		DateFrom:     from,
		DateTo:       to,
		DaysOfWeek:   req.DaysOfWeek,
		Boroughs:     req.Boroughs,
		PaymentTypes: req.PaymentTypes,
		Sample:       req.Sample,
	}
	if len(req.Hours) == 2 {
		f.Hours = &database.IntRange{Min: req.Hours[0], Max: req.Hours[1]}
	}
	if len(req.FareRange) == 2 {
		f.FareRange = &database.FloatRange{Min: req.FareRange[0], Max: req.FareRange[1]}
	}
	if len(req.DistanceRange) == 2 {
		f.DistanceRange = &database.FloatRange{Min: req.DistanceRange[0], Max: req.DistanceRange[1]}
	}
	return f, f.Validate()
}

// BoxplotParams are the query parameters of /fares/boxplot.
type BoxplotParams struct {
	By string `json:"by" validate:"oneof=PU_Borough"`
}

// TipsHistogramParams are the query parameters of /fares/tips-histogram.
type TipsHistogramParams struct {
	Bins int `json:"bins" validate:"min=5,max=100"`
}

// ScatterParams are the query parameters of /fares/scatter.
type ScatterParams struct {
	ColorBy string `json:"color_by" validate:"oneof=time_of_day"`
	Sample  int    `json:"sample" validate:"min=100,max=100000"`
}

// SeriesParams are the query parameters of /temporal/series.
type SeriesParams struct {
	Metric string `json:"metric" validate:"oneof=trip_count avg_fare avg_tip_pct"`
}

// ZoneStatsParams are the query parameters of /geo/zones-stats.
type ZoneStatsParams struct {
	Side string `json:"side" validate:"oneof=pickup dropoff"`
}

// ClustersParams are the query parameters of /geo/clusters.
type ClustersParams struct {
	K    int    `json:"k" validate:"min=2,max=20"`
	Side string `json:"side" validate:"oneof=pickup dropoff"`
}

// FareRequest is the body of POST /predict/fare.
//
// pickup_datetime accepts RFC3339 or a naive "2006-01-02T15:04:05"
// timestamp. Fares follow the local clock, so an offset is dropped and the
// wall-clock time kept. passenger_count defaults to 1.
type FareRequest struct {
	PickupZoneID   int    `json:"pickup_zone_id" validate:"min=1,max=265"`
	DropoffZoneID  int    `json:"dropoff_zone_id" validate:"min=1,max=265"`
	PickupDatetime string `json:"pickup_datetime" validate:"required"`
	PassengerCount *int   `json:"passenger_count" validate:"omitempty,min=1,max=6"`
}

// pickupTime is validated separately once pickup_datetime has been parsed.
type pickupTime struct {
	PickupDatetime time.Time `json:"pickup_datetime" validate:"notbefore2015"`
}

var pickupLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parsePickupDatetime returns the wall-clock pickup time in UTC.
func parsePickupDatetime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
	}
	for _, layout := range pickupLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToRequest validates req and converts it for the estimator.
func (req *FareRequest) ToRequest() (fare.Request, *models.APIError) {
	if apiErr := validateRequest(req); apiErr != nil {
		return fare.Request{}, apiErr
	}

	t, ok := parsePickupDatetime(req.PickupDatetime)
	if !ok {
		return fare.Request{}, &models.APIError{
			Code:    ErrCodeValidation,
			Message: "pickup_datetime must be RFC3339 or YYYY-MM-DDTHH:MM:SS",
			Details: map[string]interface{}{"field": "pickup_datetime", "value": req.PickupDatetime},
		}
	}
	if apiErr := validateRequest(&pickupTime{PickupDatetime: t}); apiErr != nil {
		return fare.Request{}, apiErr
	}

	passengers := 1
	if req.PassengerCount != nil {
		passengers = *req.PassengerCount
	}
	return fare.Request{
		PickupZoneID:   req.PickupZoneID,
		DropoffZoneID:  req.DropoffZoneID,
		PickupDatetime: t,
		PassengerCount: passengers,
	}, nil
}
