// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treepickup/pickup/spatial"
)

// scatter returns n points within roughly radiusKm of each center.
func scatter(r *rand.Rand, centers []spatial.Coordinate, n int, radiusKm float64) []spatial.Coordinate {
	const kmPerDegree = 111.2

	coords := make([]spatial.Coordinate, 0, n*len(centers))

	for i := 0; i < n; i++ {
		for _, c := range centers {
			dLat := (r.Float64()*2 - 1) * radiusKm / kmPerDegree
			dLng := (r.Float64()*2 - 1) * radiusKm / kmPerDegree
			coords = append(coords, spatial.MustCoordinate(c.Lat()+dLat, c.Lng()+dLng))
		}
	}

	return coords
}

func groupSizes(labels []int, k int) []int {
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	return sizes
}

func TestCluster_InvalidTeamCount(t *testing.T) {
	coords := scatter(rand.New(rand.NewPCG(1, 1)), []spatial.Coordinate{spatial.MustCoordinate(40, -75)}, 5, 5)

	tests := []struct {
		name string
		k    int
		msg  string
	}{
		{"more teams than addresses", 10, "cannot create 10 teams with only 5 addresses"},
		{"zero teams", 0, "team count must be at least 1 (got 0)"},
		{"negative teams", -2, "team count must be at least 1 (got -2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels, err := Cluster(coords, tt.k, DefaultSeed)
			assert.Nil(t, labels)

			var countErr *InvalidTeamCountError
			require.ErrorAs(t, err, &countErr)
			assert.Equal(t, tt.k, countErr.Teams)
			assert.Equal(t, 5, countErr.Locations)
			assert.Equal(t, tt.msg, err.Error())
			assert.NotEmpty(t, countErr.Hint())
		})
	}

	_, err := Cluster(nil, 1, DefaultSeed)
	require.Error(t, err)
}

func TestCluster_Deterministic(t *testing.T) {
	centers := []spatial.Coordinate{
		spatial.MustCoordinate(39.95, -75.16),
		spatial.MustCoordinate(40.05, -75.05),
		spatial.MustCoordinate(39.90, -75.30),
	}
	coords := scatter(rand.New(rand.NewPCG(7, 7)), centers, 12, 8)

	first, err := Cluster(coords, 4, 1234)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Cluster(coords, 4, 1234)
		require.NoError(t, err)

		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("Cluster() not deterministic (-first +again):\n%s", diff)
		}
	}

	// A single sequential attempt with the same seed matches its own rerun too.
	e := &Engine{Attempts: 1, MaxIterations: DefaultMaxIterations, NewRand: PCGRand}
	a, err := e.Cluster(coords, 4, 99)
	require.NoError(t, err)
	b, err := e.Cluster(coords, 4, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCluster_AlwaysKNonEmptyGroups(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 3))
	coords := scatter(r, []spatial.Coordinate{spatial.MustCoordinate(-34.9, -56.16)}, 20, 15)

	for k := 1; k <= len(coords); k++ {
		labels, err := Cluster(coords, k, DefaultSeed)
		require.NoError(t, err)
		require.Len(t, labels, len(coords))

		for g, size := range groupSizes(labels, k) {
			assert.Positive(t, size, "k=%d group %d is empty", k, g)
		}

		assert.Equal(t, 0, labels[0])
	}
}

func TestCluster_IdenticalPoints(t *testing.T) {
	p := spatial.MustCoordinate(51.5, -0.12)
	q := spatial.MustCoordinate(51.6, -0.10)
	coords := []spatial.Coordinate{p, p, p, p, q}

	for k := 1; k <= len(coords); k++ {
		labels, err := Cluster(coords, k, DefaultSeed)
		require.NoError(t, err)

		for g, size := range groupSizes(labels, k) {
			assert.Positive(t, size, "k=%d group %d is empty", k, g)
		}
	}
}

func TestCluster_SeparatesDistantGroups(t *testing.T) {
	// Two tight pairs 100 km apart.
	coords := []spatial.Coordinate{
		spatial.MustCoordinate(40.000, -75.000),
		spatial.MustCoordinate(40.900, -75.000),
		spatial.MustCoordinate(40.001, -75.001),
		spatial.MustCoordinate(40.901, -75.001),
	}

	labels, err := Cluster(coords, 2, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1}, labels)
}

func TestCluster_Antimeridian(t *testing.T) {
	coords := []spatial.Coordinate{
		spatial.MustCoordinate(-17.0, 179.99),
		spatial.MustCoordinate(-17.0, -179.99),
		spatial.MustCoordinate(-18.5, 178.50),
		spatial.MustCoordinate(-18.5, 178.51),
	}

	labels, err := Cluster(coords, 2, DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1}, labels)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, []int{0, 0, 1, 2, 1}, canonical([]int{2, 2, 0, 1, 0}))
}

func TestRepairEmpty(t *testing.T) {
	points := []point{{0, 0}, {1, 0}, {10, 0}, {50, 50}}
	centroids := []point{{0, 0}, {100, 100}, {200, 200}}
	labels := []int{0, 0, 0, 0}

	repairEmpty(points, centroids, labels, 3)

	// The farthest point from centroid 0 goes to cluster 1, the next one to 2.
	assert.Equal(t, []int{0, 0, 2, 1}, labels)
}

func TestCheckTeamCount(t *testing.T) {
	require.NoError(t, CheckTeamCount(1, 1))
	require.NoError(t, CheckTeamCount(3, 10))
	require.Error(t, CheckTeamCount(4, 3))
	require.Error(t, CheckTeamCount(0, 3))
}
