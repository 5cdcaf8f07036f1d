// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bluele/gcache"

	"github.com/tomtom215/taxidash/internal/config"
	"github.com/tomtom215/taxidash/internal/database"
	"github.com/tomtom215/taxidash/internal/metrics"
)

const analyticsCacheType = "analytics"

// AnalyticsExecutor runs the shared flow of every analytics endpoint:
//
//  1. Decode and validate the filter body
//  2. Look the result up in the LRU cache
//  3. Run the query on a miss and cache the result
//  4. Respond with the envelope (query time, cached flag)
//
// Cache keys combine the endpoint, its query parameters and the filter
// fingerprint, so equivalent filters share an entry.
type AnalyticsExecutor struct {
	cache gcache.Cache // nil when caching is disabled
}

// NewAnalyticsExecutor creates an executor with an LRU result cache sized
// and aged by cfg.
func NewAnalyticsExecutor(cfg config.CacheConfig) *AnalyticsExecutor {
	if !cfg.Enabled || cfg.Size <= 0 {
		return &AnalyticsExecutor{}
	}
	builder := gcache.New(cfg.Size).LRU()
	if cfg.TTL > 0 {
		builder = builder.Expiration(cfg.TTL)
	}
	return &AnalyticsExecutor{cache: builder.Build()}
}

// AnalyticsQueryFunc computes one endpoint's payload for a filter. The
// result must be JSON-serializable.
type AnalyticsQueryFunc func(ctx context.Context, filter database.TripFilter) (interface{}, error)

// Execute decodes the filter from the request body and answers from cache
// or queryFunc. params identifies the endpoint's validated query
// parameters and is part of the cache key.
func (e *AnalyticsExecutor) Execute(
	w http.ResponseWriter,
	r *http.Request,
	endpoint string,
	params string,
	queryFunc AnalyticsQueryFunc,
) {
	start := time.Now()

	var req FilterRequest
	if apiErr := decodeJSONBody(r, &req); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, apiErr)
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		respondServiceError(w, endpoint, err)
		return
	}

	cacheKey := endpoint + "?" + params + "#" + filter.Fingerprint()
	if e.cache != nil {
		if cached, err := e.cache.Get(cacheKey); err == nil {
			metrics.RecordCacheLookup(analyticsCacheType, true)
			respondSuccess(w, cached, start, true)
			return
		}
		metrics.RecordCacheLookup(analyticsCacheType, false)
	}

	data, err := queryFunc(r.Context(), filter)
	if err != nil {
		respondServiceError(w, endpoint, err)
		return
	}

	if e.cache != nil {
		if err := e.cache.Set(cacheKey, data); err == nil {
			metrics.CacheSize.WithLabelValues(analyticsCacheType).Set(float64(e.cache.Len(false)))
		}
	}

	respondSuccess(w, data, start, false)
}

// Purge empties the cache and reports whether there was one to empty.
func (e *AnalyticsExecutor) Purge() bool {
	if e.cache == nil {
		return false
	}
	e.cache.Purge()
	metrics.CacheSize.WithLabelValues(analyticsCacheType).Set(0)
	return true
}
