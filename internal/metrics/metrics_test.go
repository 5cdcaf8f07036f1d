// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramCount reads the sample count of one histogram series.
func histogramCount(t *testing.T, vec *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()
	h, ok := vec.WithLabelValues(labels...).(prometheus.Histogram)
	if !ok {
		t.Fatal("observer is not a histogram")
	}
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		err       error
	}{
		{"success", "kpis", "trips", nil},
		{"short error", "histogram", "trips", errors.New("IO Error: no files")},
		{"long error truncated", "clusters", "zones", errors.New("this is a very long error message that exceeds fifty characters and must be truncated")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.CollectAndCount(DBQueryErrors)
			RecordDBQuery(tt.operation, tt.table, 10*time.Millisecond, tt.err)
			after := testutil.CollectAndCount(DBQueryErrors)
			if tt.err == nil && after != before {
				t.Errorf("error series changed on success: %d -> %d", before, after)
			}
			if tt.err != nil {
				msg := tt.err.Error()
				if len(msg) > 50 {
					msg = msg[:50]
				}
				if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.table, msg)); got < 1 {
					t.Errorf("error counter = %v, want >= 1", got)
				}
			}
		})
	}
}

func TestRecordDBQuery_ObservesDuration(t *testing.T) {
	before := histogramCount(t, DBQueryDuration, "heatmap", "trips")
	RecordDBQuery("heatmap", "trips", 30*time.Millisecond, nil)
	RecordDBQuery("heatmap", "trips", 2*time.Second, errors.New("timeout"))
	if got := histogramCount(t, DBQueryDuration, "heatmap", "trips") - before; got != 2 {
		t.Errorf("sample count delta = %d, want 2", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/kpis", "200"))
	RecordAPIRequest("GET", "/api/v1/kpis", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/kpis", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	start := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != start+2 {
		t.Errorf("active = %v, want %v", got, start+2)
	}
	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != start {
		t.Errorf("active = %v, want %v", got, start)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(CacheHits.WithLabelValues("test"))
	misses := testutil.ToFloat64(CacheMisses.WithLabelValues("test"))
	RecordCacheLookup("test", true)
	RecordCacheLookup("test", false)
	RecordCacheLookup("test", false)
	if got := testutil.ToFloat64(CacheHits.WithLabelValues("test")) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("test")) - misses; got != 2 {
		t.Errorf("misses delta = %v, want 2", got)
	}
}

func TestRecordPoolTask(t *testing.T) {
	for _, tc := range []struct {
		err       error
		cancelled bool
		label     string
	}{
		{nil, false, "success"},
		{errors.New("boom"), false, "error"},
		{errors.New("context canceled"), true, "cancelled"},
	} {
		before := testutil.ToFloat64(PoolTasksTotal.WithLabelValues(tc.label))
		RecordPoolTask(tc.err, tc.cancelled)
		if got := testutil.ToFloat64(PoolTasksTotal.WithLabelValues(tc.label)) - before; got != 1 {
			t.Errorf("%s delta = %v, want 1", tc.label, got)
		}
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("test-breaker", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-breaker", "closed", "open")); got < 1 {
		t.Errorf("transitions = %v, want >= 1", got)
	}
}
