// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package fare estimates taxi fares from a trained model bundle.
//
// The bundle is loaded on first use and kept for the life of the process.
// Estimates combine a flat-fare override for JFK and Manhattan, the model's
// prediction with an MAE-based interval, and rule-based surcharges.
package fare

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/taxidash/internal/logging"
	"github.com/tomtom215/taxidash/internal/metrics"
	"github.com/tomtom215/taxidash/internal/models"
)

var (
	// ErrModelUnavailable means no model bundle could be found.
	ErrModelUnavailable = errors.New("fare model unavailable")

	// ErrInvalidZone means a zone has no centroid in the bundle.
	ErrInvalidZone = errors.New("invalid zone id")
)

// JFK <-> Manhattan flat fare terms.
const (
	FlatFareJFKManhattan = 70.00
	flatFareTollEstimate = 10.00
	flatFareDistance     = 15.0
	flatFareNote         = "JFK ↔ Manhattan has a flat $70 fare plus surcharges and tolls"
)

// MinimumFare is the NYC base fare; estimates never go below it.
const MinimumFare = 3.00

// Request is one fare estimate request.
type Request struct {
	PickupZoneID   int
	DropoffZoneID  int
	PickupDatetime time.Time
	PassengerCount int
}

// ZoneNamer resolves zone IDs to display names.
type ZoneNamer interface {
	ZoneNames(ctx context.Context) (map[int]string, error)
}

// Estimator produces fare estimates. It is safe for concurrent use.
type Estimator struct {
	path  string
	zones ZoneNamer

	// A successfully loaded bundle is kept; a failed load is retried on the
	// next call so a model dropped in later is picked up.
	mu     sync.Mutex
	bundle *Bundle
}

// NewEstimator creates an Estimator for the bundle at path.
func NewEstimator(path string, zones ZoneNamer) *Estimator {
	return &Estimator{path: path, zones: zones}
}

// Load returns the bundle, reading it on first use.
func (e *Estimator) Load() (*Bundle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bundle != nil {
		return e.bundle, nil
	}

	b, err := LoadBundle(e.path)
	if err != nil {
		return nil, err
	}
	e.bundle = b
	metrics.FareModelLoaded.Set(1)
	logging.Info().
		Str("path", e.path).
		Str("model", b.Model.Type).
		Int("features", len(b.FeatureCols)).
		Msg("Fare model loaded")
	return b, nil
}

// Preload loads the bundle at startup. Failure is logged, not fatal.
func (e *Estimator) Preload() bool {
	if _, err := e.Load(); err != nil {
		logging.Warn().Err(err).Msg("Could not preload fare model")
		return false
	}
	return true
}

// Estimate prices a trip.
func (e *Estimator) Estimate(ctx context.Context, req Request) (*models.FareEstimate, error) {
	est, path, err := e.estimate(ctx, req)
	if err != nil {
		metrics.FareEstimatesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.FareEstimatesTotal.WithLabelValues(path).Inc()
	return est, nil
}

func (e *Estimator) estimate(ctx context.Context, req Request) (*models.FareEstimate, string, error) {
	b, err := e.Load()
	if err != nil {
		return nil, "", err
	}
	if req.PassengerCount <= 0 {
		req.PassengerCount = 1
	}

	names := e.zoneNames(ctx)
	name := func(id int) string {
		if n, ok := names[id]; ok {
			return n
		}
		return "Unknown"
	}

	sc := surcharges(b, req.PickupZoneID, req.DropoffZoneID, req.PickupDatetime)

	if isJFKManhattan(b, req.PickupZoneID, req.DropoffZoneID) {
		sc.Note = flatFareNote
		return &models.FareEstimate{
			FareEstimate:  FlatFareJFKManhattan,
			FareLow:       FlatFareJFKManhattan,
			FareHigh:      round2(FlatFareJFKManhattan + sc.TotalSurcharges + flatFareTollEstimate),
			DistanceMiles: flatFareDistance,
			PickupZone:    name(req.PickupZoneID),
			DropoffZone:   name(req.DropoffZoneID),
			IsAirportTrip: true,
			IsFlatFare:    true,
			Surcharges:    sc,
		}, "flat_rate", nil
	}

	pu, okPU := b.Centroid(req.PickupZoneID)
	do, okDO := b.Centroid(req.DropoffZoneID)
	if !okPU || !okDO {
		return nil, "", fmt.Errorf("%w: pickup=%d, dropoff=%d", ErrInvalidZone, req.PickupZoneID, req.DropoffZoneID)
	}

	features := buildFeatures(b, req, pu, do)
	predicted := b.Model.Predict(features.Vector(b.FeatureCols))
	if math.IsNaN(predicted) || math.IsInf(predicted, 0) {
		return nil, "", fmt.Errorf("model produced a non-finite fare for %d -> %d", req.PickupZoneID, req.DropoffZoneID)
	}

	mae := b.MAE()
	low := math.Max(predicted-1.5*mae, MinimumFare)
	high := predicted + 1.5*mae

	return &models.FareEstimate{
		FareEstimate:  round2(math.Max(predicted, MinimumFare)),
		FareLow:       round2(low),
		FareHigh:      round2(high),
		DistanceMiles: round2(features["haversine_distance"]),
		PickupZone:    name(req.PickupZoneID),
		DropoffZone:   name(req.DropoffZoneID),
		IsAirportTrip: IsAirport(req.PickupZoneID) || IsAirport(req.DropoffZoneID),
		Surcharges:    sc,
	}, "model", nil
}

func isJFKManhattan(b *Bundle, pickupID, dropoffID int) bool {
	return (pickupID == JFKZone && b.IsManhattan(dropoffID)) ||
		(dropoffID == JFKZone && b.IsManhattan(pickupID))
}

func (e *Estimator) zoneNames(ctx context.Context) map[int]string {
	if e.zones == nil {
		return nil
	}
	names, err := e.zones.ZoneNames(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Zone names unavailable for fare estimate")
		return nil
	}
	return names
}

// ModelInfo describes the loaded model.
func (e *Estimator) ModelInfo() (*models.ModelInfo, error) {
	b, err := e.Load()
	if err != nil {
		return nil, err
	}
	m := b.Metrics
	if m == nil {
		m = map[string]float64{}
	}
	return &models.ModelInfo{
		TrainingDate:    b.TrainingDate,
		Metrics:         m,
		FeatureCount:    len(b.FeatureCols),
		TrainingSamples: b.TrainingSamples,
	}, nil
}

// CentroidLookup returns the bundle's zone centroids, used when the
// reference centroid file is missing.
func (e *Estimator) CentroidLookup() (map[int]Point, error) {
	b, err := e.Load()
	if err != nil {
		return nil, err
	}
	out := make(map[int]Point, len(b.centroids))
	for id, p := range b.centroids {
		out[id] = p
	}
	return out, nil
}
