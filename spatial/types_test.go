// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"bounds", 90, 180, false},
		{"negative bounds", -90, -180, false},
		{"philadelphia", 39.9526, -75.1652, false},
		{"latitude too high", 90.0001, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"longitude too low", 0, -181, true},
		{"nan latitude", math.NaN(), 0, true},
		{"nan longitude", 0, math.NaN(), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCoordinate(tc.lat, tc.lng)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidCoordinate)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tc.lat, c.Lat(), 1e-12)
			assert.InDelta(t, tc.lng, c.Lng(), 1e-12)
		})
	}
}

func TestCoordinateJSON(t *testing.T) {
	c := MustCoordinate(-34.9011, -56.1645)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":-34.9011,"lng":-56.1645}`, string(data))

	var back Coordinate
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)

	err = json.Unmarshal([]byte(`{"lat":123,"lng":0}`), &back)
	require.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestCoordinateScan(t *testing.T) {
	c := MustCoordinate(40.7128, -74.006)

	v, err := c.Value()
	require.NoError(t, err)

	var scanned Coordinate
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, c, scanned)

	require.NoError(t, scanned.Scan([]byte("POINT(1.5 2.5)")))
	assert.Equal(t, MustCoordinate(2.5, 1.5), scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, Coordinate{}, scanned)

	require.Error(t, scanned.Scan(42))
	require.ErrorIs(t, scanned.Scan("POINT(0 95)"), ErrInvalidCoordinate)
}

func TestDistance(t *testing.T) {
	philly := MustCoordinate(39.9526, -75.1652)
	nyc := MustCoordinate(40.7128, -74.0060)
	boston := MustCoordinate(42.3601, -71.0589)

	t.Run("identical coordinates", func(t *testing.T) {
		assert.Zero(t, Distance(philly, philly))
	})

	t.Run("known distance", func(t *testing.T) {
		// Philadelphia to New York is roughly 130 km as the crow flies.
		assert.InDelta(t, 129.6, Distance(philly, nyc), 1.0)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		a := MustCoordinate(0, 0)
		b := MustCoordinate(1, 0)
		assert.InDelta(t, EarthRadiusKm*math.Pi/180, Distance(a, b), 1e-9)
	})

	t.Run("symmetry", func(t *testing.T) {
		assert.InDelta(t, Distance(philly, boston), Distance(boston, philly), 1e-9)
		assert.InDelta(t, Distance(nyc, boston), nyc.DistanceTo(boston), 1e-12)
	})

	t.Run("triangle inequality", func(t *testing.T) {
		points := []Coordinate{
			philly, nyc, boston,
			MustCoordinate(-33.8688, 151.2093),
			MustCoordinate(51.5074, -0.1278),
			MustCoordinate(0, 179.9),
			MustCoordinate(0, -179.9),
		}
		for _, a := range points {
			for _, b := range points {
				for _, c := range points {
					assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-9)
				}
			}
		}
	})

	t.Run("antimeridian", func(t *testing.T) {
		a := MustCoordinate(0, 179.9)
		b := MustCoordinate(0, -179.9)
		assert.InDelta(t, 22.24, Distance(a, b), 0.01)
	})
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Coordinate{}, Centroid(nil))

	c := Centroid([]Coordinate{MustCoordinate(10, 20), MustCoordinate(20, 40)})
	assert.InDelta(t, 15.0, c.Lat(), 1e-12)
	assert.InDelta(t, 30.0, c.Lng(), 1e-12)
}
