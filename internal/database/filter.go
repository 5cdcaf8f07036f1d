// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int
	Max int
}

// FloatRange is an inclusive numeric range.
type FloatRange struct {
	Min float64
	Max float64
}

// TripFilter describes which trips an aggregation covers. Every field is
// optional and the zero value matches every trip.
//
// Fields combine with AND; set-valued fields (DaysOfWeek, Boroughs,
// PaymentTypes) match any member. Only DateFrom and DateTo decide which
// partitions are opened; everything else is applied row-wise.
//
//  1. Pickup time:
//     - DateFrom: pickups at or after this instant
//     - DateTo: pickups at or before this instant
//
//  2. Calendar position:
//     - Hours: pickup hour within [Min, Max] (0-23)
//     - DaysOfWeek: pickup day index, 0=Monday..6=Sunday
//
//  3. Trip attributes:
//     - Boroughs: pickup borough, resolved to location IDs through zone data
//     - PaymentTypes: payment type codes
//     - FareRange, DistanceRange: inclusive bounds on fare_amount and trip_distance
//
//  4. Sampling:
//     - Sample: keep at most this many rows, chosen reproducibly (0 = all rows)
//
// Domains are not clamped: hours 25 or day 9 simply match nothing.
type TripFilter struct {
	DateFrom      *time.Time
	DateTo        *time.Time
	Hours         *IntRange
	DaysOfWeek    []int
	Boroughs      []string
	PaymentTypes  []int
	FareRange     *FloatRange
	DistanceRange *FloatRange
	Sample        int
}

// ParseDateBound parses a filter date. Accepted forms are YYYY-MM-DD and
// RFC3339. A date-only upper bound covers the whole day, so "2020-03-31"
// as DateTo includes pickups at 2020-03-31 23:59:59.999999. Empty input
// returns nil.
func ParseDateBound(s string, upper bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		if upper {
			t = t.Add(24*time.Hour - time.Microsecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD or RFC3339", ErrInvalidFilter, s)
	}
	// Trip timestamps are stored as naive local wall-clock values.
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return &t, nil
}

// Validate checks structural validity only: ordered ranges and a
// non-negative sample size.
func (f TripFilter) Validate() error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return fmt.Errorf("%w: date_to is before date_from", ErrInvalidFilter)
	}
	if f.Hours != nil && f.Hours.Min > f.Hours.Max {
		return fmt.Errorf("%w: hours range [%d, %d] is inverted", ErrInvalidFilter, f.Hours.Min, f.Hours.Max)
	}
	if f.FareRange != nil && f.FareRange.Min > f.FareRange.Max {
		return fmt.Errorf("%w: fare_range is inverted", ErrInvalidFilter)
	}
	if f.DistanceRange != nil && f.DistanceRange.Min > f.DistanceRange.Max {
		return fmt.Errorf("%w: distance_range is inverted", ErrInvalidFilter)
	}
	if f.Sample < 0 {
		return fmt.Errorf("%w: sample must be >= 0, got %d", ErrInvalidFilter, f.Sample)
	}
	return nil
}

// IsIdentity reports whether f matches every trip.
func (f TripFilter) IsIdentity() bool {
	return f.DateFrom == nil && f.DateTo == nil && f.Hours == nil &&
		len(f.DaysOfWeek) == 0 && len(f.Boroughs) == 0 && len(f.PaymentTypes) == 0 &&
		f.FareRange == nil && f.DistanceRange == nil && f.Sample == 0
}

// Fingerprint returns a stable key for f. Set-valued fields are order
// insensitive, so [1,2] and [2,1] produce the same key.
func (f TripFilter) Fingerprint() string {
	if f.IsIdentity() {
		return ""
	}
	var b strings.Builder
	writeTime := func(name string, t *time.Time) {
		if t != nil {
			b.WriteString(name + "=" + t.UTC().Format(time.RFC3339Nano) + ";")
		}
	}
	writeInts := func(name string, values []int) {
		if len(values) == 0 {
			return
		}
		sorted := append([]int(nil), values...)
		sort.Ints(sorted)
		parts := make([]string, len(sorted))
		for i, v := range sorted {
			parts[i] = strconv.Itoa(v)
		}
		b.WriteString(name + "=" + strings.Join(parts, ",") + ";")
	}
	writeFloats := func(name string, r *FloatRange) {
		if r != nil {
			b.WriteString(name + "=" + strconv.FormatFloat(r.Min, 'g', -1, 64) + "," + strconv.FormatFloat(r.Max, 'g', -1, 64) + ";")
		}
	}

	writeTime("from", f.DateFrom)
	writeTime("to", f.DateTo)
	if f.Hours != nil {
		fmt.Fprintf(&b, "hours=%d,%d;", f.Hours.Min, f.Hours.Max)
	}
	writeInts("dow", f.DaysOfWeek)
	if len(f.Boroughs) > 0 {
		sorted := append([]string(nil), f.Boroughs...)
		sort.Strings(sorted)
		b.WriteString("boroughs=" + strings.Join(sorted, "|") + ";")
	}
	writeInts("payment", f.PaymentTypes)
	writeFloats("fare", f.FareRange)
	writeFloats("distance", f.DistanceRange)
	if f.Sample > 0 {
		fmt.Fprintf(&b, "sample=%d;", f.Sample)
	}
	return b.String()
}
