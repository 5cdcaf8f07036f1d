// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"errors"
	"io"
)

var (
	// ErrDatasetUnavailable means the trips root exists but cannot be read,
	// or the query engine is refusing work (open circuit breaker).
	ErrDatasetUnavailable = errors.New("trip dataset unavailable")

	// ErrInvalidFilter means a filter is structurally invalid, e.g. an
	// inverted range or a negative sample size.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrNoCentroids means clustering was requested but no zone centroids
	// are loaded, so there is nothing to cluster.
	ErrNoCentroids = errors.New("zone centroids data not available")
)

// closeQuietly closes a resource and ignores the error. Use it in cleanup
// paths where Close errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
