// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package models

// PaymentType is one entry of the payment type enum.
type PaymentType struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// DateRange is the dataset's pickup date span; nil bounds mean no data.
type DateRange struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

// FilterOptions lists the values a client can filter on.
type FilterOptions struct {
	Boroughs     []string      `json:"boroughs"`
	PaymentTypes []PaymentType `json:"payment_types"`
	DateRange    DateRange     `json:"date_range"`
}

// SchemaField documents one field name.
type SchemaField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Schema documents trip columns and filter fields.
type Schema struct {
	TripFields   []SchemaField `json:"trip_fields"`
	FilterFields []SchemaField `json:"filter_fields"`
}

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status string `json:"status"`
}
