// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package zones serves the taxi zone reference tables.
//
// Two small CSV files back the service: the zone lookup
// (LocationID, Borough, Zone, service_zone) in the raw data directory and
// the zone centroids (LocationID plus longitude/latitude or
// centroid_lon/centroid_lat) in the artifacts directory. Each table is read
// through DuckDB on first use and kept for the life of the process once a
// read succeeds. A failed read is not kept; the next caller retries it. A
// missing file yields empty tables so borough filters simply match nothing.
package zones

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tomtom215/taxidash/internal/database/query"
	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/metrics"
)

// Lookup and centroid file names.
const (
	LookupFile         = "taxi_zone_lookup.csv"
	LookupFileFallback = "taxi+_zone_lookup.csv"
	CentroidFile       = "zone_centroids.csv"
)

// Zone is one row of the zone lookup table.
type Zone struct {
	LocationID  int
	Borough     string
	Name        string
	ServiceZone string
}

// Centroid is a zone's representative point in degrees.
type Centroid struct {
	Lon float64
	Lat float64
}

// Service lazily loads and caches zone reference data. It is safe for
// concurrent use. Reads run detached from the caller's cancellation, so a
// request that goes away mid-load does not poison the table for others.
type Service struct {
	db           *sql.DB
	rawDir       string
	artifactsDir string

	lookupMu     sync.Mutex
	lookupLoaded bool
	zones        []Zone
	boroughs     map[int]string
	names        map[int]string

	centroidMu     sync.Mutex
	centroidLoaded bool
	centroids      map[int]Centroid
}

// NewService creates a Service reading from rawDir and artifactsDir.
func NewService(db *sql.DB, rawDir, artifactsDir string) *Service {
	return &Service{db: db, rawDir: rawDir, artifactsDir: artifactsDir}
}

// Zones returns every zone in LocationID order.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	if err := s.loadLookup(ctx); err != nil {
		return nil, err
	}
	return s.zones, nil
}

// BoroughMap maps LocationID to borough name. Zones without a borough are absent.
func (s *Service) BoroughMap(ctx context.Context) (map[int]string, error) {
	if err := s.loadLookup(ctx); err != nil {
		return nil, err
	}
	return s.boroughs, nil
}

// ZoneNames maps LocationID to zone name.
func (s *Service) ZoneNames(ctx context.Context) (map[int]string, error) {
	if err := s.loadLookup(ctx); err != nil {
		return nil, err
	}
	return s.names, nil
}

// AvailableBoroughs returns the distinct borough names, sorted.
func (s *Service) AvailableBoroughs(ctx context.Context) ([]string, error) {
	boroughs, err := s.BoroughMap(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, b := range boroughs {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out, nil
}

// LocationsInBoroughs returns the sorted LocationIDs whose borough is one of
// boroughs. Names must match exactly.
func (s *Service) LocationsInBoroughs(ctx context.Context, boroughs []string) ([]int, error) {
	lookup, err := s.BoroughMap(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(boroughs))
	for _, b := range boroughs {
		wanted[b] = struct{}{}
	}
	ids := make([]int, 0, len(lookup))
	for id, b := range lookup {
		if _, ok := wanted[b]; ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// Centroids maps LocationID to centroid.
func (s *Service) Centroids(ctx context.Context) (map[int]Centroid, error) {
	s.centroidMu.Lock()
	defer s.centroidMu.Unlock()
	if s.centroidLoaded {
		return s.centroids, nil
	}

	centroids, err := s.readCentroids(context.WithoutCancel(ctx))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to load zone centroids")
		return nil, err
	}
	s.centroids = centroids
	s.centroidLoaded = true
	metrics.ZonesLoaded.WithLabelValues("centroids").Set(float64(len(centroids)))
	logging.Info().Int("zones", len(centroids)).Msg("Zone centroids loaded")
	return s.centroids, nil
}

func (s *Service) loadLookup(ctx context.Context) error {
	s.lookupMu.Lock()
	defer s.lookupMu.Unlock()
	if s.lookupLoaded {
		return nil
	}

	zones, err := s.readLookup(context.WithoutCancel(ctx))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to load zone lookup")
		return err
	}
	s.boroughs = make(map[int]string, len(zones))
	s.names = make(map[int]string, len(zones))
	for _, z := range zones {
		if z.Borough != "" {
			s.boroughs[z.LocationID] = z.Borough
		}
		if z.Name != "" {
			s.names[z.LocationID] = z.Name
		}
	}
	s.zones = zones
	s.lookupLoaded = true
	metrics.ZonesLoaded.WithLabelValues("lookup").Set(float64(len(zones)))
	logging.Info().Int("zones", len(zones)).Msg("Zone lookup loaded")
	return nil
}

func (s *Service) readLookup(ctx context.Context) ([]Zone, error) {
	path := firstExisting(
		filepath.Join(s.rawDir, LookupFile),
		filepath.Join(s.rawDir, LookupFileFallback),
	)
	if path == "" {
		logging.Warn().Str("dir", s.rawDir).Msg("Zone lookup file not found, using empty lookup")
		return []Zone{}, nil
	}

	q := fmt.Sprintf(`SELECT CAST(LocationID AS INTEGER), CAST(Borough AS VARCHAR), CAST(Zone AS VARCHAR), CAST(service_zone AS VARCHAR)
		FROM read_csv_auto(%s, header=true)
		WHERE LocationID IS NOT NULL
		ORDER BY LocationID`, query.Literal(path))

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	zones := []Zone{}
	for rows.Next() {
		var id int
		var borough, name, service sql.NullString
		if err := rows.Scan(&id, &borough, &name, &service); err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}
		zones = append(zones, Zone{
			LocationID:  id,
			Borough:     strings.TrimSpace(borough.String),
			Name:        strings.TrimSpace(name.String),
			ServiceZone: strings.TrimSpace(service.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone rows: %w", err)
	}
	return zones, nil
}

func (s *Service) readCentroids(ctx context.Context) (map[int]Centroid, error) {
	path := firstExisting(filepath.Join(s.artifactsDir, CentroidFile))
	if path == "" {
		logging.Warn().Str("dir", s.artifactsDir).Msg("Zone centroid file not found, using empty centroids")
		return map[int]Centroid{}, nil
	}

	source := fmt.Sprintf("read_csv_auto(%s, header=true)", query.Literal(path))
	lonCol, latCol, err := s.centroidColumns(ctx, source)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT CAST(LocationID AS INTEGER), CAST(%s AS DOUBLE), CAST(%s AS DOUBLE)
		FROM %s
		WHERE LocationID IS NOT NULL AND %s IS NOT NULL AND %s IS NOT NULL`,
		lonCol, latCol, source, lonCol, latCol)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	centroids := make(map[int]Centroid)
	for rows.Next() {
		var id int
		var c Centroid
		if err := rows.Scan(&id, &c.Lon, &c.Lat); err != nil {
			return nil, fmt.Errorf("failed to scan centroid row: %w", err)
		}
		centroids[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate centroid rows: %w", err)
	}
	return centroids, nil
}

// centroidColumns picks the coordinate column names present in the file.
func (s *Service) centroidColumns(ctx context.Context, source string) (lon, lat string, err error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+source+" LIMIT 0")
	if err != nil {
		return "", "", fmt.Errorf("failed to inspect centroid file: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", "", fmt.Errorf("failed to read centroid columns: %w", err)
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[c] = true
	}

	switch {
	case present["longitude"] && present["latitude"]:
		return "longitude", "latitude", nil
	case present["centroid_lon"] && present["centroid_lat"]:
		return "centroid_lon", "centroid_lat", nil
	}
	return "", "", fmt.Errorf("centroid file has no longitude/latitude or centroid_lon/centroid_lat columns (found %v)", cols)
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		} else if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("path", p).Msg("Cannot stat reference file")
		}
	}
	return ""
}
