// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/zones"
)

// testDBSemaphore keeps DuckDB tests from running concurrently; CGO calls
// under heavy parallelism exhaust memory in CI.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB opens an in-memory DuckDB and holds the semaphore until the
// test completes.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// tripRow is one fixture trip. Derived columns are computed when the
// fixture is written.
type tripRow struct {
	Pickup   string // "2006-01-02 15:04"
	Minutes  int
	PU, DO   int
	Distance float64
	Fare     float64
	Tip      float64
	Payment  int
}

// fixtureTrips spans 2020-01..2020-04. Expected aggregates over all nine:
//
//	total 9, minutes 192, fare 119.5, distance 26.2
//	hour 8 has 3 pickups; Manhattan (161, 237) has 6 pickups
//	quality: r6 zero distance, r7 negative fare, r8 0.5 mph
var fixtureTrips = []tripRow{
	{"2020-01-06 08:15", 20, 161, 237, 2.0, 10.0, 2.0, 1},   // r1 Mon
	{"2020-01-06 08:45", 10, 161, 132, 1.0, 6.0, 0.0, 2},    // r2 Mon
	{"2020-01-07 17:30", 30, 237, 161, 3.0, 15.0, 3.0, 1},   // r3 Tue
	{"2020-02-10 08:05", 40, 132, 161, 15.0, 52.0, 13.0, 1}, // r4 Mon
	{"2020-02-15 23:10", 15, 7, 7, 2.5, 11.0, 0.0, 2},       // r5 Sat
	{"2020-03-01 12:00", 0, 161, 161, 0.0, 2.5, 0.0, 2},     // r6 Sun
	{"2020-03-31 23:59", 5, 264, 161, 1.0, -5.0, 0.0, 4},    // r7 Tue
	{"2020-04-02 09:00", 60, 161, 237, 0.5, 20.0, 5.0, 1},   // r8 Thu
	{"2020-04-15 14:00", 12, 237, 161, 1.2, 8.0, 12.0, 1},   // r9 Wed
}

// writeTripFixture writes rows as a hive-partitioned Parquet dataset under
// a temp dir and returns the root. February uses a zero-padded month
// directory.
func writeTripFixture(t *testing.T, db *DB, rows []tripRow) string {
	t.Helper()
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "trips")

	conn := db.Conn()
	if _, err := conn.ExecContext(ctx, `CREATE OR REPLACE TABLE fixture_trips (
		pickup TIMESTAMP, minutes INTEGER, pu_id INTEGER, do_id INTEGER,
		distance DOUBLE, fare DOUBLE, tip DOUBLE, payment INTEGER)`); err != nil {
		t.Fatalf("create fixture table: %v", err)
	}

	partitions := map[Partition]bool{}
	for _, r := range rows {
		ts, err := time.Parse("2006-01-02 15:04", r.Pickup)
		if err != nil {
			t.Fatalf("bad fixture time %q: %v", r.Pickup, err)
		}
		partitions[PartitionOf(ts)] = true
		if _, err := conn.ExecContext(ctx, `INSERT INTO fixture_trips VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ts, r.Minutes, r.PU, r.DO, r.Distance, r.Fare, r.Tip, r.Payment); err != nil {
			t.Fatalf("insert fixture row: %v", err)
		}
	}

	for p := range partitions {
		monthDir := fmt.Sprintf("month=%d", p.Month)
		if p.Month == 2 {
			monthDir = fmt.Sprintf("month=%02d", p.Month)
		}
		dir := filepath.Join(root, fmt.Sprintf("year=%d", p.Year), monthDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		copySQL := fmt.Sprintf(`COPY (
			SELECT
				pickup AS tpep_pickup_datetime,
				pickup + to_minutes(minutes) AS tpep_dropoff_datetime,
				pu_id AS PULocationID,
				do_id AS DOLocationID,
				1.0 AS passenger_count,
				distance AS trip_distance,
				fare AS fare_amount,
				tip AS tip_amount,
				fare + tip AS total_amount,
				payment AS payment_type,
				CAST(minutes AS DOUBLE) AS trip_minutes,
				CAST(hour(pickup) AS INTEGER) AS hour,
				CAST(isodow(pickup) - 1 AS INTEGER) AS dow,
				CAST(year(pickup) AS INTEGER) AS year,
				CAST(month(pickup) AS INTEGER) AS month,
				CASE WHEN distance > 0 THEN fare / distance END AS fare_per_mile,
				CASE WHEN fare > 0 THEN tip / fare END AS tip_pct
			FROM fixture_trips
			WHERE year(pickup) = %d AND month(pickup) = %d
			ORDER BY pickup
		) TO '%s' (FORMAT PARQUET)`, p.Year, p.Month, filepath.Join(dir, "part-0.parquet"))
		if _, err := conn.ExecContext(ctx, copySQL); err != nil {
			t.Fatalf("write partition %s: %v", p, err)
		}
	}
	return root
}

// fakeZones is an in-memory ZoneSource.
type fakeZones struct {
	boroughs  map[int]string
	centroids map[int]zones.Centroid
}

func newFakeZones() *fakeZones {
	return &fakeZones{
		boroughs: map[int]string{
			1:   "EWR",
			7:   "Queens",
			132: "Queens",
			161: "Manhattan",
			237: "Manhattan",
		},
		centroids: map[int]zones.Centroid{
			132: {Lon: -73.7866, Lat: 40.6413},
			161: {Lon: -73.9776, Lat: 40.7580},
			237: {Lon: -73.9656, Lat: 40.7662},
		},
	}
}

func (z *fakeZones) BoroughMap(context.Context) (map[int]string, error) {
	return z.boroughs, nil
}

func (z *fakeZones) Centroids(context.Context) (map[int]zones.Centroid, error) {
	return z.centroids, nil
}

func (z *fakeZones) LocationsInBoroughs(_ context.Context, boroughs []string) ([]int, error) {
	var ids []int
	for id, b := range z.boroughs {
		for _, want := range boroughs {
			if b == want {
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// newTestEngine builds an engine over the fixture dataset.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	db := setupTestDB(t)
	root := writeTripFixture(t, db, fixtureTrips)
	return newEngineAt(t, db, root, newFakeZones())
}

func newEngineAt(t *testing.T, db *DB, root string, zs ZoneSource) *Engine {
	t.Helper()
	pool := NewWorkerPool(2)
	t.Cleanup(pool.Close)
	return NewEngine(db, NewCatalog(root), zs, pool, EngineOptions{})
}

func mustDate(t *testing.T, s string, upper bool) *time.Time {
	t.Helper()
	d, err := ParseDateBound(s, upper)
	if err != nil {
		t.Fatalf("ParseDateBound(%q): %v", s, err)
	}
	return d
}

func TestNew_InMemory(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestTimedQuery_ConcurrentReaders(t *testing.T) {
	db := setupTestDB(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var got int
			err := db.timedQuery(context.Background(), "test", "SELECT CAST(? AS INTEGER) + 1", []interface{}{i}, func(rows *sql.Rows) error {
				return rows.Scan(&got)
			})
			if err == nil && got != i+1 {
				err = fmt.Errorf("got %d, want %d", got, i+1)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}
