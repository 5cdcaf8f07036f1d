// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestQueryBuilder_StageOrder(t *testing.T) {
	root := makeLayout(t,
		"year=2020/month=1/a.parquet",
		"year=2020/month=2/a.parquet",
		"year=2020/month=2/b.parquet",
		"year=2020/month=4/a.parquet",
	)
	b := NewQueryBuilder(NewCatalog(root), newFakeZones())

	f := TripFilter{
		Boroughs:      []string{"Manhattan"},
		PaymentTypes:  []int{1},
		FareRange:     &FloatRange{Min: 1, Max: 50},
		DistanceRange: &FloatRange{Min: 0.1, Max: 30},
		DaysOfWeek:    []int{0, 6},
		Hours:         &IntRange{Min: 6, Max: 9},
		DateTo:        mustDate(t, "2020-02-29", true),
		DateFrom:      mustDate(t, "2020-01-01", false),
		Sample:        50,
	}
	plan, err := b.Build(context.Background(), f)
	checkNoError(t, err)

	var kinds, names []string
	for _, s := range plan.Stages() {
		kinds = append(kinds, s.Kind())
		if fs, ok := s.(FilterStage); ok {
			names = append(names, fs.Name)
		}
	}
	checkStringEqual(t, "kinds", strings.Join(kinds, ","),
		"scan,project,filter,filter,filter,filter,filter,filter,filter,filter,sample")
	checkStringEqual(t, "filters", strings.Join(names, ","),
		"date_from,date_to,hours,days_of_week,distance_range,fare_range,payment_types,boroughs")

	if got := len(plan.Files()); got != 3 {
		t.Errorf("files = %d, want 3 (April pruned)", got)
	}
	if !plan.Sampled() {
		t.Error("plan should be sampled")
	}
	if parts := plan.Partitions(); len(parts) != 1 {
		t.Errorf("sampled plan split into %d parts, want 1", len(parts))
	}
	if !strings.Contains(plan.String(), "filter[boroughs](PULocationID IN (?, ?)") {
		t.Errorf("plan string missing borough ids: %s", plan)
	}
}

func TestQueryBuilder_PartitionsSplit(t *testing.T) {
	root := makeLayout(t,
		"year=2020/month=1/a.parquet",
		"year=2020/month=2/a.parquet",
		"year=2020/month=2/b.parquet",
	)
	b := NewQueryBuilder(NewCatalog(root), newFakeZones())

	plan, err := b.Build(context.Background(), TripFilter{Hours: &IntRange{Min: 0, Max: 5}})
	checkNoError(t, err)

	parts := plan.Partitions()
	if len(parts) != 2 {
		t.Fatalf("got %d partition plans, want 2", len(parts))
	}
	if len(parts[1].Files()) != 2 {
		t.Errorf("february plan has %d files, want 2", len(parts[1].Files()))
	}
	for _, p := range parts {
		if len(p.Stages()) != len(plan.Stages()) {
			t.Errorf("partition plan lost stages: %s", p)
		}
	}
}

func TestQueryBuilder_NoMatchingBorough(t *testing.T) {
	b := NewQueryBuilder(NewCatalog(t.TempDir()), newFakeZones())
	plan, err := b.Build(context.Background(), TripFilter{Boroughs: []string{"Atlantis"}})
	checkNoError(t, err)

	sql, _ := plan.SQL()
	if !strings.Contains(sql, "FALSE") {
		t.Errorf("unmatched borough should render a never-true predicate:\n%s", sql)
	}
}

func TestQueryBuilder_InvalidFilter(t *testing.T) {
	b := NewQueryBuilder(NewCatalog(t.TempDir()), newFakeZones())
	_, err := b.Build(context.Background(), TripFilter{Sample: -5})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("error = %v, want ErrInvalidFilter", err)
	}
}

func TestPlan_SQL(t *testing.T) {
	root := makeLayout(t, "year=2020/month=1/a.parquet")
	b := NewQueryBuilder(NewCatalog(root), newFakeZones())
	ctx := context.Background()

	plan, err := b.Build(ctx, TripFilter{PaymentTypes: []int{1, 2}})
	checkNoError(t, err)
	sql, args := plan.SQL()
	if !strings.Contains(sql, "read_parquet(['"+root) || !strings.Contains(sql, "hive_partitioning=false") {
		t.Errorf("unexpected source:\n%s", sql)
	}
	if !strings.Contains(sql, "payment_type IN (?, ?)") {
		t.Errorf("missing payment predicate:\n%s", sql)
	}
	if len(args) != 2 {
		t.Errorf("args = %v, want 2", args)
	}

	sampled, err := b.Build(ctx, TripFilter{Sample: 10})
	checkNoError(t, err)
	sql, args = sampled.SQL()
	if !strings.Contains(sql, "hash(") || !strings.Contains(sql, "LIMIT ?") {
		t.Errorf("sampled plan SQL missing sampling:\n%s", sql)
	}
	if len(args) != 3 || args[0] != SampleSeed || args[1] != 10 || args[2] != 10 {
		t.Errorf("sample args = %v, want [42 10 10]", args)
	}

	empty, err := NewQueryBuilder(NewCatalog(t.TempDir()), newFakeZones()).Build(ctx, TripFilter{})
	checkNoError(t, err)
	if !empty.IsEmpty() {
		t.Error("plan over empty root should be empty")
	}
	sql, _ = empty.SQL()
	if !strings.Contains(sql, "empty_trips") {
		t.Errorf("empty plan should use the typed empty source:\n%s", sql)
	}
}
