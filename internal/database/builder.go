// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/taxidash/internal/database/query"
)

// BoroughResolver maps borough names to the location IDs they contain.
type BoroughResolver interface {
	LocationsInBoroughs(ctx context.Context, boroughs []string) ([]int, error)
}

// QueryBuilder turns a TripFilter into a Plan. It never caches plans or
// results; every Build call sees the dataset as it is on disk.
type QueryBuilder struct {
	catalog  *Catalog
	boroughs BoroughResolver
}

// NewQueryBuilder creates a QueryBuilder.
func NewQueryBuilder(catalog *Catalog, boroughs BoroughResolver) *QueryBuilder {
	return &QueryBuilder{catalog: catalog, boroughs: boroughs}
}

// Build validates f and assembles its plan:
//
//	scan (pruned partitions) -> project -> filters -> sample
//
// Filters are added in a fixed order: pickup lower bound, pickup upper
// bound, hour range, day-of-week set, distance range, fare range,
// payment-type set, pickup borough set. A borough list that resolves to no
// location IDs matches nothing.
func (b *QueryBuilder) Build(ctx context.Context, f TripFilter) (*Plan, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	set := b.catalog.PartitionsForDateRange(f.DateFrom, f.DateTo)
	files, err := b.catalog.Files(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("failed to list partition files: %w", err)
	}

	plan := &Plan{
		scan:    ScanStage{Partitions: set, Files: files},
		project: ProjectStage{Columns: TripColumns},
	}

	add := func(name string, p query.Predicate) {
		plan.filters = append(plan.filters, FilterStage{Name: name, Predicate: p})
	}

	if f.DateFrom != nil {
		add("date_from", query.AtLeast("tpep_pickup_datetime", *f.DateFrom))
	}
	if f.DateTo != nil {
		add("date_to", query.AtMost("tpep_pickup_datetime", *f.DateTo))
	}
	if f.Hours != nil {
		add("hours", query.Between("hour", f.Hours.Min, f.Hours.Max))
	}
	if len(f.DaysOfWeek) > 0 {
		add("days_of_week", query.InInts("dow", f.DaysOfWeek))
	}
	if f.DistanceRange != nil {
		add("distance_range", query.Between("trip_distance", f.DistanceRange.Min, f.DistanceRange.Max))
	}
	if f.FareRange != nil {
		add("fare_range", query.Between("fare_amount", f.FareRange.Min, f.FareRange.Max))
	}
	if len(f.PaymentTypes) > 0 {
		add("payment_types", query.InInts("payment_type", f.PaymentTypes))
	}
	if len(f.Boroughs) > 0 {
		ids, err := b.boroughs.LocationsInBoroughs(ctx, f.Boroughs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve boroughs: %w", err)
		}
		add("boroughs", query.InInts("PULocationID", ids))
	}

	if f.Sample > 0 {
		plan.sample = &SampleStage{N: f.Sample, Seed: SampleSeed}
	}

	return plan, nil
}
