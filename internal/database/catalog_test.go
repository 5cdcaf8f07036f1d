// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// makeLayout creates empty .parquet files for each relative path.
func makeLayout(t *testing.T, paths ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, p := range paths {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestPartitionsForDateRange(t *testing.T) {
	c := NewCatalog("unused")

	tests := []struct {
		name     string
		from, to *time.Time
		want     PartitionSet
	}{
		{
			name: "no bounds",
			want: PartitionSet{All: true},
		},
		{
			name: "first quarter",
			from: date(2020, 1, 1),
			to:   date(2020, 3, 31),
			want: PartitionSet{Partitions: []Partition{{2020, 1}, {2020, 2}, {2020, 3}}},
		},
		{
			name: "across year end",
			from: date(2019, 11, 20),
			to:   date(2020, 1, 5),
			want: PartitionSet{Partitions: []Partition{{2019, 11}, {2019, 12}, {2020, 1}}},
		},
		{
			name: "single day",
			from: date(2021, 6, 15),
			to:   date(2021, 6, 15),
			want: PartitionSet{Partitions: []Partition{{2021, 6}}},
		},
		{
			name: "only from",
			from: date(2020, 5, 10),
			want: PartitionSet{Lower: &Partition{2020, 5}},
		},
		{
			name: "only to",
			to:   date(2020, 5, 10),
			want: PartitionSet{Upper: &Partition{2020, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.PartitionsForDateRange(tt.from, tt.to)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PartitionsForDateRange() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPartitionSet_OneBoundIsSuperset(t *testing.T) {
	c := NewCatalog("unused")
	from := date(2020, 5, 31)
	set := c.PartitionsForDateRange(from, nil)

	// Every month that can hold a pickup >= from must be selected.
	for _, p := range []Partition{{2020, 5}, {2020, 6}, {2021, 1}, {2030, 12}} {
		if !set.Contains(p) {
			t.Errorf("%s should be selected by %s", p, set)
		}
	}
	if set.Contains(Partition{2020, 4}) {
		t.Errorf("2020-04 cannot hold pickups after %s", from)
	}

	upper := c.PartitionsForDateRange(nil, date(2020, 5, 1))
	if !upper.Contains(Partition{2015, 1}) || !upper.Contains(Partition{2020, 5}) || upper.Contains(Partition{2020, 6}) {
		t.Errorf("upper-bound set %s selects the wrong months", upper)
	}
}

func TestDiscoverAndFiles(t *testing.T) {
	root := makeLayout(t,
		"year=2020/month=1/a.parquet",
		"year=2020/month=1/b.parquet",
		"year=2020/month=02/a.parquet",
		"year=2020/month=3/notes.txt",
		"year=2019/month=12/a.parquet",
		"year=2019/month=13/a.parquet",
		"other/month=1/a.parquet",
	)
	c := NewCatalog(root)
	ctx := context.Background()

	got, err := c.Discover(ctx)
	checkNoError(t, err)
	want := []Partition{{2019, 12}, {2020, 1}, {2020, 2}, {2020, 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}

	files, err := c.Files(ctx, c.PartitionsForDateRange(date(2020, 1, 1), date(2020, 12, 31)))
	checkNoError(t, err)
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(root, f.Path)
		rel = append(rel, filepath.ToSlash(r))
	}
	wantRel := []string{
		"year=2020/month=1/a.parquet",
		"year=2020/month=1/b.parquet",
		"year=2020/month=02/a.parquet",
	}
	if !reflect.DeepEqual(rel, wantRel) {
		t.Errorf("Files() = %v, want %v", rel, wantRel)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope"))
	if c.Exists() {
		t.Error("Exists() = true for missing root")
	}
	parts, err := c.Discover(context.Background())
	checkNoError(t, err)
	if len(parts) != 0 {
		t.Errorf("Discover() = %v, want empty", parts)
	}
}

func TestDiscover_UnreadableRoot(t *testing.T) {
	// A regular file where the root directory should be.
	root := filepath.Join(t.TempDir(), "trips")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewCatalog(root).Discover(context.Background())
	checkErrorIs(t, err, ErrDatasetUnavailable)
}
