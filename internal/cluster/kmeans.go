// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

// Package cluster implements weighted k-means over 2-D points.
//
// Centers are seeded with k-means++ (first center drawn proportionally to
// weight, later ones proportionally to weight times squared distance), then
// refined with Lloyd iterations using weighted means. The whole procedure is
// repeated NInit times from the same seeded generator and the run with the
// lowest weighted inertia wins, so results are reproducible for a given seed.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults used when Options fields are zero.
const (
	DefaultSeed    = 42
	DefaultNInit   = 10
	DefaultMaxIter = 300
	DefaultTol     = 1e-4
)

// ErrNoPoints is returned when there is nothing to cluster.
var ErrNoPoints = errors.New("cluster: no points with positive weight")

// Point is a weighted observation.
type Point struct {
	X      float64
	Y      float64
	Weight float64
}

// Options controls a KMeans run.
type Options struct {
	K       int
	Seed    uint64
	NInit   int
	MaxIter int
	// Tol is relative to the mean per-dimension variance of the points.
	Tol float64
}

func (o Options) withDefaults() Options {
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.NInit <= 0 {
		o.NInit = DefaultNInit
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol <= 0 {
		o.Tol = DefaultTol
	}
	return o
}

// Center is a cluster center and the total weight assigned to it.
type Center struct {
	X      float64
	Y      float64
	Weight float64
}

// Result of a KMeans run. Labels[i] is the cluster of points[i].
type Result struct {
	Centers    []Center
	Labels     []int
	Inertia    float64
	Iterations int
}

// KMeans clusters points into opts.K groups. K larger than the number of
// points is reduced to the number of points.
func KMeans(points []Point, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if opts.K < 1 {
		return nil, fmt.Errorf("cluster: k must be >= 1, got %d", opts.K)
	}

	var totalWeight float64
	for _, p := range points {
		if p.Weight < 0 || math.IsNaN(p.Weight) {
			return nil, fmt.Errorf("cluster: invalid weight %v", p.Weight)
		}
		totalWeight += p.Weight
	}
	if len(points) == 0 || totalWeight == 0 {
		return nil, ErrNoPoints
	}

	k := min(opts.K, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ws := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], ws[i] = p.X, p.Y, p.Weight
	}
	tol := opts.Tol * (stat.PopVariance(xs, nil) + stat.PopVariance(ys, nil)) / 2

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	var best *Result
	for run := 0; run < opts.NInit; run++ {
		centers := seedPlusPlus(points, k, rng)
		res := lloyd(points, xs, ys, ws, centers, opts.MaxIter, tol)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centers with weighted k-means++.
func seedPlusPlus(points []Point, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	weights := make([]float64, len(points))
	for i, p := range points {
		weights[i] = p.Weight
	}
	first := points[pick(weights, rng)]
	centers = append(centers, []float64{first.X, first.Y})

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = sqDist([]float64{p.X, p.Y}, centers[0])
	}

	for len(centers) < k {
		probs := make([]float64, len(points))
		for i := range points {
			probs[i] = points[i].Weight * d2[i]
		}
		var idx int
		if floats.Sum(probs) == 0 {
			// Every remaining point coincides with a center.
			idx = pick(weights, rng)
		} else {
			idx = pick(probs, rng)
		}
		c := []float64{points[idx].X, points[idx].Y}
		centers = append(centers, c)
		for i, p := range points {
			if d := sqDist([]float64{p.X, p.Y}, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// pick draws an index with probability proportional to w.
func pick(w []float64, rng *rand.Rand) int {
	total := floats.Sum(w)
	target := rng.Float64() * total
	var acc float64
	for i, v := range w {
		acc += v
		if target < acc {
			return i
		}
	}
	// Rounding left target at the top; return the last positive entry.
	for i := len(w) - 1; i >= 0; i-- {
		if w[i] > 0 {
			return i
		}
	}
	return 0
}

func lloyd(points []Point, xs, ys, ws []float64, centers [][]float64, maxIter int, tol float64) *Result {
	labels := make([]int, len(points))
	k := len(centers)
	iter := 0

	for iter < maxIter {
		iter++
		assign(points, centers, labels)

		shift := 0.0
		for c := 0; c < k; c++ {
			var cx, cy, cw []float64
			for i, l := range labels {
				if l == c && ws[i] > 0 {
					cx = append(cx, xs[i])
					cy = append(cy, ys[i])
					cw = append(cw, ws[i])
				}
			}
			if len(cw) == 0 {
				continue // empty cluster keeps its center
			}
			next := []float64{stat.Mean(cx, cw), stat.Mean(cy, cw)}
			shift += sqDist(next, centers[c])
			centers[c] = next
		}
		if shift <= tol {
			break
		}
	}
	assign(points, centers, labels)

	res := &Result{
		Centers:    make([]Center, k),
		Labels:     labels,
		Iterations: iter,
	}
	for c := range centers {
		res.Centers[c] = Center{X: centers[c][0], Y: centers[c][1]}
	}
	for i, p := range points {
		c := labels[i]
		res.Centers[c].Weight += p.Weight
		res.Inertia += p.Weight * sqDist([]float64{p.X, p.Y}, centers[c])
	}
	return res
}

// assign labels each point with its nearest center; ties go to the lower index.
func assign(points []Point, centers [][]float64, labels []int) {
	for i, p := range points {
		pt := []float64{p.X, p.Y}
		best, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(pt, center); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
