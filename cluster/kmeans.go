// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster partitions coordinates into compact groups with seeded
// k-means. The same coordinates, team count and seed always produce the same
// assignment.
package cluster

import (
	"math"
	"math/rand/v2"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/treepickup/pickup/spatial"
)

const (
	// DefaultAttempts is the number of independently seeded runs; the one
	// with the lowest within-cluster sum of squares wins.
	DefaultAttempts = 10

	// DefaultMaxIterations bounds the Lloyd iterations of a single run.
	DefaultMaxIterations = 300

	// DefaultSeed is used when the caller has no preference.
	DefaultSeed = 42
)

// RandFactory returns the generator for one attempt. It must be a pure
// function of its arguments.
type RandFactory func(seed int64, attempt int) *rand.Rand

// PCGRand is the default RandFactory.
func PCGRand(seed int64, attempt int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(attempt)))
}

// Engine runs k-means. The zero value is not usable, see NewEngine.
type Engine struct {
	Attempts      int
	MaxIterations int
	NewRand       RandFactory
	Logger        *zap.Logger
}

// NewEngine returns an Engine with the default settings.
func NewEngine() *Engine {
	return &Engine{
		Attempts:      DefaultAttempts,
		MaxIterations: DefaultMaxIterations,
		NewRand:       PCGRand,
	}
}

// Cluster is NewEngine().Cluster.
func Cluster(coords []spatial.Coordinate, k int, seed int64) ([]int, error) {
	return NewEngine().Cluster(coords, k, seed)
}

type point struct{ x, y float64 }

type attempt struct {
	labels     []int
	inertia    float64
	iterations int
}

// Cluster assigns every coordinate a group index in [0, k). Every group is
// non-empty, and groups are numbered by first appearance in coords, so
// coords[0] is always in group 0.
func (e *Engine) Cluster(coords []spatial.Coordinate, k int, seed int64) ([]int, error) {
	if err := CheckTeamCount(k, len(coords)); err != nil {
		return nil, err
	}

	if k == 1 {
		return make([]int, len(coords)), nil
	}

	points := project(coords)
	attempts := max(e.Attempts, 1)
	newRand := e.NewRand

	if newRand == nil {
		newRand = PCGRand
	}

	results := make([]attempt, attempts)

	var g errgroup.Group

	g.SetLimit(runtime.GOMAXPROCS(0))

	for a := range attempts {
		g.Go(func() error {
			results[a] = e.run(points, k, newRand(seed, a))

			return nil
		})
	}

	_ = g.Wait()

	best := 0

	for a := 1; a < attempts; a++ {
		if results[a].inertia < results[best].inertia {
			best = a
		}
	}

	logger := e.Logger
	if logger == nil {
		logger = zap.L()
	}

	logger.Debug("kmeans done",
		zap.Int("k", k),
		zap.Int("points", len(points)),
		zap.Int64("seed", seed),
		zap.Int("attempt", best),
		zap.Int("iterations", results[best].iterations),
		zap.Float64("inertia", results[best].inertia))

	return canonical(results[best].labels), nil
}

// project maps coordinates onto a local equirectangular plane in kilometers.
// Longitudes are taken relative to the first point so groups spanning the
// antimeridian stay contiguous.
func project(coords []spatial.Coordinate) []point {
	var meanLat float64
	for _, c := range coords {
		meanLat += c.Lat()
	}

	meanLat /= float64(len(coords))

	const rad = math.Pi / 180

	scale := math.Cos(meanLat * rad)
	refLng := coords[0].Lng()
	points := make([]point, len(coords))

	for i, c := range coords {
		dLng := math.Mod(c.Lng()-refLng+540, 360) - 180
		points[i] = point{
			x: spatial.EarthRadiusKm * dLng * rad * scale,
			y: spatial.EarthRadiusKm * c.Lat() * rad,
		}
	}

	return points
}

func sqDist(a, b point) float64 {
	dx, dy := a.x-b.x, a.y-b.y

	return dx*dx + dy*dy
}

func (e *Engine) run(points []point, k int, r *rand.Rand) attempt {
	centroids := seedCentroids(points, k, r)
	labels := make([]int, len(points))

	for i := range labels {
		labels[i] = -1
	}

	maxIter := max(e.MaxIterations, 1)
	iter := 0

	for iter < maxIter {
		iter++

		next := assign(points, centroids)
		repairEmpty(points, centroids, next, k)

		changed := false

		for i := range next {
			if next[i] != labels[i] {
				changed = true

				break
			}
		}

		labels = next
		centroids = recompute(points, labels, k)

		if !changed {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}

	return attempt{labels: labels, inertia: inertia, iterations: iter}
}

// seedCentroids picks k initial centroids with k-means++: the first
// uniformly, each next one with probability proportional to its squared
// distance to the closest centroid already chosen.
func seedCentroids(points []point, k int, r *rand.Rand) []point {
	n := len(points)
	chosen := make([]bool, n)
	centroids := make([]point, 0, k)

	first := r.IntN(n)
	chosen[first] = true
	centroids = append(centroids, points[first])

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, points[first])
	}

	for len(centroids) < k {
		var total float64
		for i := range points {
			if !chosen[i] {
				total += closest[i]
			}
		}

		pick := -1

		if total > 0 {
			target := r.Float64() * total

			for i := range points {
				if chosen[i] || closest[i] == 0 {
					continue
				}

				pick = i
				target -= closest[i]

				if target < 0 {
					break
				}
			}
		} else {
			// Every remaining point sits on a centroid: pick any unused one.
			nth := r.IntN(n - len(centroids))
			for i := range points {
				if chosen[i] {
					continue
				}

				if nth == 0 {
					pick = i

					break
				}

				nth--
			}
		}

		chosen[pick] = true
		centroids = append(centroids, points[pick])

		for i, p := range points {
			closest[i] = min(closest[i], sqDist(p, points[pick]))
		}
	}

	return centroids
}

// assign labels every point with its nearest centroid, ties going to the
// lowest centroid index.
func assign(points, centroids []point) []int {
	labels := make([]int, len(points))

	for i, p := range points {
		best, bestDist := 0, math.Inf(1)

		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}

		labels[i] = best
	}

	return labels
}

// repairEmpty gives every empty cluster the point farthest from its own
// centroid, taken from a cluster that keeps at least one member. Ties go to
// the lowest point index. The moved point becomes the cluster's centroid.
func repairEmpty(points, centroids []point, labels []int, k int) {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	for c := range k {
		if counts[c] > 0 {
			continue
		}

		far, farDist := -1, -1.0

		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}

			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}

		// k <= len(points) guarantees a donor while a cluster is empty.
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		centroids[c] = points[far]
	}
}

func recompute(points []point, labels []int, k int) []point {
	sums := make([]point, k)
	counts := make([]int, k)

	for i, p := range points {
		sums[labels[i]].x += p.x
		sums[labels[i]].y += p.y
		counts[labels[i]]++
	}

	for c := range sums {
		if counts[c] > 0 {
			sums[c].x /= float64(counts[c])
			sums[c].y /= float64(counts[c])
		}
	}

	return sums
}

// canonical renumbers labels by order of first appearance.
func canonical(labels []int) []int {
	mapping := map[int]int{}
	out := make([]int, len(labels))

	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}

		out[i] = id
	}

	return out
}
