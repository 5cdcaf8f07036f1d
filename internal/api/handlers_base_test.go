// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/fare"
	"github.com/tomtom215/taxidash/internal/models"
	"github.com/tomtom215/taxidash/internal/zones"
)

// stubAnalytics records calls and returns canned results.
type stubAnalytics struct {
	mu         sync.Mutex
	calls      map[string]int
	lastFilter database.TripFilter
	lastArgs   []interface{}
	err        error
	kpis       *models.KPIs
	dateRange  models.DateRange
}

func newStubAnalytics() *stubAnalytics {
	return &stubAnalytics{
		calls: make(map[string]int),
		kpis: &models.KPIs{
			AvgTripDurationMin: 14.5,
			AvgFarePerMile:     6.12,
			TotalTrips:         1042,
			PeakDemandHour:     17,
			BusiestBorough:     "Manhattan",
		},
	}
}

func (s *stubAnalytics) record(name string, f database.TripFilter, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	s.lastFilter = f
	s.lastArgs = args
	return s.err
}

func (s *stubAnalytics) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubAnalytics) GetKPIs(_ context.Context, f database.TripFilter) (*models.KPIs, error) {
	if err := s.record("kpis", f); err != nil {
		return nil, err
	}
	return s.kpis, nil
}

func (s *stubAnalytics) GetFareBoxplot(_ context.Context, f database.TripFilter, by string) (*models.Boxplot, error) {
	if err := s.record("boxplot", f, by); err != nil {
		return nil, err
	}
	return &models.Boxplot{By: by, Series: []models.BoxplotSeries{}}, nil
}

func (s *stubAnalytics) GetTipHistogram(_ context.Context, f database.TripFilter, bins int) (*models.Histogram, error) {
	if err := s.record("histogram", f, bins); err != nil {
		return nil, err
	}
	return &models.Histogram{BinEdges: make([]float64, bins+1), Counts: make([]int64, bins)}, nil
}

func (s *stubAnalytics) GetFareScatter(_ context.Context, f database.TripFilter, sample int) ([]models.ScatterPoint, error) {
	if err := s.record("scatter", f, sample); err != nil {
		return nil, err
	}
	return []models.ScatterPoint{{Distance: 2, Fare: 10, TOD: "morning", TipPct: 0.2}}, nil
}

func (s *stubAnalytics) GetTemporalHeatmap(_ context.Context, f database.TripFilter) (*models.Heatmap, error) {
	if err := s.record("heatmap", f); err != nil {
		return nil, err
	}
	return models.NewHeatmap(), nil
}

func (s *stubAnalytics) GetMonthlySeries(_ context.Context, f database.TripFilter, metric string) ([]models.SeriesPoint, error) {
	if err := s.record("series", f, metric); err != nil {
		return nil, err
	}
	return []models.SeriesPoint{{Month: "2020-01", Value: 3}}, nil
}

func (s *stubAnalytics) GetZoneStats(_ context.Context, f database.TripFilter, side string) (*models.ZoneStats, error) {
	if err := s.record("zonestats", f, side); err != nil {
		return nil, err
	}
	return &models.ZoneStats{Side: side, Stats: []models.ZoneStat{}}, nil
}

func (s *stubAnalytics) GetZoneClusters(_ context.Context, f database.TripFilter, k int, side string) (*models.Clusters, error) {
	if err := s.record("clusters", f, k, side); err != nil {
		return nil, err
	}
	return &models.Clusters{K: k, Centroids: []models.ClusterCentroid{}}, nil
}

func (s *stubAnalytics) GetQualityReport(_ context.Context, f database.TripFilter) (*models.QualityReport, error) {
	if err := s.record("quality", f); err != nil {
		return nil, err
	}
	return &models.QualityReport{RowsTotal: 9, RowsAfterFilters: 6}, nil
}

func (s *stubAnalytics) DateRange(context.Context) models.DateRange {
	return s.dateRange
}

type stubZones struct {
	zones     []zones.Zone
	boroughs  []string
	centroids map[int]zones.Centroid
	err       error
}

func (s *stubZones) Zones(context.Context) ([]zones.Zone, error) { return s.zones, s.err }

func (s *stubZones) AvailableBoroughs(context.Context) ([]string, error) { return s.boroughs, s.err }

func (s *stubZones) Centroids(context.Context) (map[int]zones.Centroid, error) {
	return s.centroids, s.err
}

type stubFares struct {
	mu      sync.Mutex
	last    fare.Request
	calls   int
	err     error
	lookup  map[int]fare.Point
	info    *models.ModelInfo
	infoErr error
}

func (s *stubFares) Estimate(_ context.Context, req fare.Request) (*models.FareEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.FareEstimate{FareEstimate: 12.5, FareLow: 9.5, FareHigh: 15.5, PickupZone: "A", DropoffZone: "B"}, nil
}

func (s *stubFares) ModelInfo() (*models.ModelInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return s.info, nil
}

func (s *stubFares) CentroidLookup() (map[int]fare.Point, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return s.lookup, nil
}

// testConfig enables the cache and disables rate limiting.
func testConfig() *config.Config {
	return &config.Config{
		Cache:    config.CacheConfig{Enabled: true, Size: 64, TTL: time.Minute},
		Server:   config.ServerConfig{Timeout: 10 * time.Second},
		Security: config.SecurityConfig{CORSOrigins: []string{"http://localhost:5173"}, RateLimitDisabled: true},
	}
}

type testServer struct {
	analytics *stubAnalytics
	zones     *stubZones
	fares     *stubFares
	handler   http.Handler
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	ts := &testServer{
		analytics: newStubAnalytics(),
		zones:     &stubZones{},
		fares:     &stubFares{},
	}
	h := NewHandler(ts.analytics, ts.zones, ts.fares, cfg)
	ts.handler = NewRouter(h, cfg).SetupChi()
	return ts
}

// envelope mirrors models.APIResponse with a raw payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if ct := rec.Header().Get("Content-Type"); ct == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid envelope %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("invalid data %s: %v", env.Data, err)
	}
}
