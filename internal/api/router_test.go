// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/models"
)

func TestRouter_Routes(t *testing.T) {
	ts := newTestServer(t, testConfig())

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/meta/health", http.StatusOK},
		{http.MethodGet, "/api/v1/meta/filters", http.StatusOK},
		{http.MethodGet, "/api/v1/meta/schema", http.StatusOK},
		{http.MethodPost, "/api/v1/kpis", http.StatusOK},
		{http.MethodPost, "/api/v1/summary/short-text", http.StatusOK},
		{http.MethodPost, "/api/v1/fares/boxplot", http.StatusOK},
		{http.MethodPost, "/api/v1/fares/tips-histogram", http.StatusOK},
		{http.MethodPost, "/api/v1/fares/scatter", http.StatusOK},
		{http.MethodPost, "/api/v1/temporal/heatmap", http.StatusOK},
		{http.MethodPost, "/api/v1/temporal/series", http.StatusOK},
		{http.MethodPost, "/api/v1/geo/zones-stats", http.StatusOK},
		{http.MethodPost, "/api/v1/geo/clusters", http.StatusOK},
		{http.MethodPost, "/api/v1/quality/report", http.StatusOK},
		{http.MethodGet, "/api/v1/kpis", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/meta/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/does-not-exist", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec, env := ts.do(t, tt.method, tt.path, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			wantStatus := "success"
			if tt.want != http.StatusOK {
				wantStatus = "error"
			}
			if env.Status != wantStatus {
				t.Errorf("envelope status = %q, want %q", env.Status, wantStatus)
			}
			if env.Metadata.Timestamp.IsZero() {
				t.Error("metadata.timestamp not set")
			}
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec, _ := ts.do(t, http.MethodGet, "/api/v1/meta/health", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig())

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost:5173", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/kpis", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if !tt.allowed && got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q for disallowed origin", got)
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RateLimitReqs: 2, RateLimitWindow: time.Minute}
	ts := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec, _ := ts.do(t, http.MethodGet, "/api/v1/meta/health", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}
	rec, env := ts.do(t, http.MethodGet, "/api/v1/meta/health", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "RATE_LIMITED" {
		t.Errorf("error = %+v, want RATE_LIMITED", env.Error)
	}
}

func TestMeta_Filters(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.zones.boroughs = []string{"Bronx", "Manhattan"}
	lo, hi := "2020-01-06", "2020-04-15"
	ts.analytics.dateRange = models.DateRange{Min: &lo, Max: &hi}

	rec, env := ts.do(t, http.MethodGet, "/api/v1/meta/filters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got models.FilterOptions
	decodeData(t, env, &got)

	if len(got.Boroughs) != 2 || got.Boroughs[1] != "Manhattan" {
		t.Errorf("boroughs = %v", got.Boroughs)
	}
	if len(got.PaymentTypes) != 6 || got.PaymentTypes[1].Name != "Cash" {
		t.Errorf("payment types = %+v", got.PaymentTypes)
	}
	if got.DateRange.Min == nil || *got.DateRange.Min != lo || *got.DateRange.Max != hi {
		t.Errorf("date range = %+v", got.DateRange)
	}
}

func TestMeta_FiltersEmptyDataset(t *testing.T) {
	ts := newTestServer(t, testConfig())

	_, env := ts.do(t, http.MethodGet, "/api/v1/meta/filters", "")
	if !strings.Contains(string(env.Data), `"boroughs":[]`) {
		t.Errorf("boroughs should be an empty list: %s", env.Data)
	}
	if !strings.Contains(string(env.Data), `"date_range":{"min":null,"max":null}`) {
		t.Errorf("date range should be null bounds: %s", env.Data)
	}
}

func TestMeta_HealthAndSchema(t *testing.T) {
	ts := newTestServer(t, testConfig())

	_, env := ts.do(t, http.MethodGet, "/api/v1/meta/health", "")
	var health models.HealthStatus
	decodeData(t, env, &health)
	if health.Status != "ok" {
		t.Errorf("health = %q, want ok", health.Status)
	}

	_, env = ts.do(t, http.MethodGet, "/api/v1/meta/schema", "")
	var schema models.Schema
	decodeData(t, env, &schema)
	if len(schema.TripFields) != 17 || len(schema.FilterFields) != 9 {
		t.Errorf("schema has %d trip and %d filter fields", len(schema.TripFields), len(schema.FilterFields))
	}
}
