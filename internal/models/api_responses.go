// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package models

import (
	"time"
)

// APIResponse is the envelope every endpoint returns.
//
// Status is "success" or "error". On success Data carries the payload; on
// error Error describes what went wrong and Data is null.
//
//	{
//	  "status": "success",
//	  "data": {"total_trips": 1042, ...},
//	  "metadata": {"timestamp": "2026-01-05T12:00:00Z", "query_time_ms": 45}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries timing and cache information for a response.
// Cached responses report QueryTimeMS as 0.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes in use:
//   - VALIDATION_ERROR: bad request parameters or body (400)
//   - INVALID_INPUT: unknown zone or malformed filter (400)
//   - SERVICE_UNAVAILABLE: dataset, reference data or model missing (503)
//   - QUERY_ERROR: aggregation failed (500)
//   - INTERNAL_ERROR: anything else (500)
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
