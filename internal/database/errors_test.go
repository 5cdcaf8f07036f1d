// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"errors"
	"fmt"
	"testing"
)

type trackingCloser struct {
	closed bool
	err    error
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloseQuietly(t *testing.T) {
	t.Run("nil closer", func(t *testing.T) {
		closeQuietly(nil)
	})

	t.Run("closes and swallows error", func(t *testing.T) {
		c := &trackingCloser{err: errors.New("already closed")}
		closeQuietly(c)
		if !c.closed {
			t.Error("Close was not called")
		}
	})
}

func TestSentinelErrors_Wrapped(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		target   error
		notMatch error
	}{
		{"dataset", fmt.Errorf("failed to list root: %w", ErrDatasetUnavailable), ErrDatasetUnavailable, ErrInvalidFilter},
		{"filter", fmt.Errorf("%w: hours out of range", ErrInvalidFilter), ErrInvalidFilter, ErrDatasetUnavailable},
		{"centroids", fmt.Errorf("failed to cluster: %w", ErrNoCentroids), ErrNoCentroids, ErrDatasetUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
			if errors.Is(tt.err, tt.notMatch) {
				t.Errorf("errors.Is(%v, %v) = true", tt.err, tt.notMatch)
			}
		})
	}
}
