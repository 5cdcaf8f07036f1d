// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package fare

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
)

// Model kinds understood by the bundle loader.
const (
	ModelGradientBoosting = "gradient_boosting"
	ModelLinear           = "linear"
)

// Bundle is the trained model artifact: the regressor plus the lookup
// tables used to build its features.
//
// On disk it is JSON:
//
//	{
//	  "training_date": "2024-05-01",
//	  "feature_cols": ["haversine_distance", "hour", ...],
//	  "centroid_lookup": {"132": [-73.78, 40.64], ...},
//	  "borough_lookup": {"132": "Queens", ...},
//	  "manhattan_zone_ids": [4, 12, ...],
//	  "metrics": {"mae": 2.1, "rmse": 3.4, "r2": 0.91},
//	  "training_samples": 1200000,
//	  "model": {"type": "gradient_boosting", "baseline": 12.5, "trees": [...]}
//	}
type Bundle struct {
	TrainingDate     *string              `json:"training_date"`
	FeatureCols      []string             `json:"feature_cols"`
	CentroidLookup   map[string][]float64 `json:"centroid_lookup"`
	BoroughLookup    map[string]string    `json:"borough_lookup"`
	ManhattanZoneIDs []int                `json:"manhattan_zone_ids"`
	Metrics          map[string]float64   `json:"metrics"`
	TrainingSamples  int64                `json:"training_samples"`
	Model            ModelSpec            `json:"model"`

	centroids map[int]Point
	manhattan map[int]struct{}
}

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// ModelSpec is the serialized regressor.
type ModelSpec struct {
	Type string `json:"type"`

	// gradient_boosting: prediction = baseline + learning_rate * sum(tree outputs)
	Baseline     float64 `json:"baseline"`
	LearningRate float64 `json:"learning_rate"`
	Trees        []Tree  `json:"trees"`

	// linear: prediction = intercept + sum(coefficients[i] * x[i])
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Tree is a flattened regression tree; Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (x[Feature] <= Threshold goes Left) or a leaf.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// LoadBundle reads and validates a bundle. A missing file is
// ErrModelUnavailable.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: model not found at %s", ErrModelUnavailable, path)
		}
		return nil, fmt.Errorf("failed to read model bundle: %w", err)
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse model bundle: %w", err)
	}
	if err := b.init(); err != nil {
		return nil, fmt.Errorf("invalid model bundle %s: %w", path, err)
	}
	return &b, nil
}

func (b *Bundle) init() error {
	for _, name := range b.FeatureCols {
		if !knownFeature(name) {
			return fmt.Errorf("unknown feature %q", name)
		}
	}

	b.centroids = make(map[int]Point, len(b.CentroidLookup))
	for key, pair := range b.CentroidLookup {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("centroid key %q is not a zone id", key)
		}
		if len(pair) != 2 {
			return fmt.Errorf("centroid for zone %d must be [lon, lat]", id)
		}
		b.centroids[id] = Point{Lon: pair[0], Lat: pair[1]}
	}

	b.manhattan = make(map[int]struct{}, len(b.ManhattanZoneIDs))
	for _, id := range b.ManhattanZoneIDs {
		b.manhattan[id] = struct{}{}
	}

	return b.Model.validate(len(b.FeatureCols))
}

// Centroid returns the bundle's centroid for a zone.
func (b *Bundle) Centroid(id int) (Point, bool) {
	p, ok := b.centroids[id]
	return p, ok
}

// IsManhattan reports whether id is a Manhattan zone.
func (b *Bundle) IsManhattan(id int) bool {
	_, ok := b.manhattan[id]
	return ok
}

// MAE returns the model's mean absolute error, 2.0 when the bundle has none.
func (b *Bundle) MAE() float64 {
	if mae, ok := b.Metrics["mae"]; ok {
		return mae
	}
	return 2.0
}

func (m *ModelSpec) validate(features int) error {
	switch m.Type {
	case ModelGradientBoosting:
		if len(m.Trees) == 0 {
			return errors.New("gradient_boosting model has no trees")
		}
		if m.LearningRate == 0 {
			m.LearningRate = 1
		}
		for ti, t := range m.Trees {
			if len(t.Nodes) == 0 {
				return fmt.Errorf("tree %d is empty", ti)
			}
			for ni, n := range t.Nodes {
				if n.Leaf {
					continue
				}
				if n.Feature < 0 || n.Feature >= features {
					return fmt.Errorf("tree %d node %d splits on feature %d of %d", ti, ni, n.Feature, features)
				}
				// Children must come after their parent, which also rules out cycles.
				if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
					return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
				}
			}
		}
	case ModelLinear:
		if len(m.Coefficients) != features {
			return fmt.Errorf("linear model has %d coefficients for %d features", len(m.Coefficients), features)
		}
	default:
		return fmt.Errorf("unsupported model type %q", m.Type)
	}
	return nil
}

// Predict scores one feature vector ordered like FeatureCols.
func (m *ModelSpec) Predict(x []float64) float64 {
	if m.Type == ModelLinear {
		y := m.Intercept
		for i, c := range m.Coefficients {
			y += c * x[i]
		}
		return y
	}

	var sum float64
	for _, t := range m.Trees {
		sum += t.predict(x)
	}
	return m.Baseline + m.LearningRate*sum
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
