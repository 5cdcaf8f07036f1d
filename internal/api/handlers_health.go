// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/models"
)

// PaymentTypes is the TLC payment type enum.
var PaymentTypes = []models.PaymentType{
	{Code: 1, Name: "Credit card"},
	{Code: 2, Name: "Cash"},
	{Code: 3, Name: "No charge"},
	{Code: 4, Name: "Dispute"},
	{Code: 5, Name: "Unknown"},
	{Code: 6, Name: "Voided trip"},
}

// Health handles liveness checks.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, models.HealthStatus{Status: "ok"}, time.Now(), false)
}

// Filters returns the values clients can filter on: boroughs from the zone
// lookup, the payment type enum and the dataset's pickup date range.
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	boroughs, err := h.zones.AvailableBoroughs(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Borough list unavailable")
	}
	if boroughs == nil {
		boroughs = []string{}
	}

	respondSuccess(w, models.FilterOptions{
		Boroughs:     boroughs,
		PaymentTypes: PaymentTypes,
		DateRange:    h.analytics.DateRange(ctx),
	}, start, false)
}

var tripSchema = models.Schema{
	TripFields: []models.SchemaField{
		{Name: "tpep_pickup_datetime", Type: "datetime", Description: "Pickup timestamp"},
		{Name: "tpep_dropoff_datetime", Type: "datetime", Description: "Dropoff timestamp"},
		{Name: "PULocationID", Type: "int", Description: "Pickup location ID"},
		{Name: "DOLocationID", Type: "int", Description: "Dropoff location ID"},
		{Name: "passenger_count", Type: "int", Description: "Number of passengers"},
		{Name: "trip_distance", Type: "float", Description: "Trip distance in miles"},
		{Name: "fare_amount", Type: "float", Description: "Base fare amount"},
		{Name: "tip_amount", Type: "float", Description: "Tip amount"},
		{Name: "total_amount", Type: "float", Description: "Total amount charged"},
		{Name: "payment_type", Type: "int", Description: "Payment type code"},
		{Name: "trip_minutes", Type: "float", Description: "Trip duration in minutes"},
		{Name: "hour", Type: "int", Description: "Hour of pickup (0-23)"},
		{Name: "dow", Type: "int", Description: "Day of week (0=Monday, 6=Sunday)"},
		{Name: "year", Type: "int", Description: "Year of pickup"},
		{Name: "month", Type: "int", Description: "Month of pickup"},
		{Name: "fare_per_mile", Type: "float", Description: "Fare per mile"},
		{Name: "tip_pct", Type: "float", Description: "Tip as a fraction of fare"},
	},
	FilterFields: []models.SchemaField{
		{Name: "date_from", Type: "string", Description: "Start date (YYYY-MM-DD or RFC3339)"},
		{Name: "date_to", Type: "string", Description: "End date, inclusive (YYYY-MM-DD or RFC3339)"},
		{Name: "boroughs", Type: "array", Description: "Pickup borough names"},
		{Name: "hours", Type: "tuple", Description: "Hour range [start, end]"},
		{Name: "days_of_week", Type: "array", Description: "Day indices (0=Monday, 6=Sunday)"},
		{Name: "payment_types", Type: "array", Description: "Payment type codes"},
		{Name: "fare_range", Type: "tuple", Description: "Fare range [min, max]"},
		{Name: "distance_range", Type: "tuple", Description: "Distance range [min, max]"},
		{Name: "sample", Type: "int", Description: "Reproducible row sample size (0 = all rows)"},
	},
}

// Schema documents trip columns and filter fields.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, tripSchema, time.Now(), false)
}
