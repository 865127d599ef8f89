// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the radius of the sphere used for great-circle distances.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned when a latitude or longitude is out of range.
var ErrInvalidCoordinate = errors.New("spatial: invalid coordinate")

// Coordinate is an immutable geographical point. The zero value is (0, 0).
type Coordinate struct {
	lat float64
	lng float64
}

// NewCoordinate validates and builds a Coordinate.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinate, lat)
	}

	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return Coordinate{}, fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinate, lng)
	}

	return Coordinate{lat: lat, lng: lng}, nil
}

// MustCoordinate is like NewCoordinate but panics on invalid input. Meant for
// literals in tests and fixtures.
func MustCoordinate(lat, lng float64) Coordinate {
	c, err := NewCoordinate(lat, lng)
	if err != nil {
		panic(err)
	}

	return c
}

// Lat returns the latitude in degrees.
func (c Coordinate) Lat() float64 { return c.lat }

// Lng returns the longitude in degrees.
func (c Coordinate) Lng() float64 { return c.lng }

// String returns a WKT representation of the Coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("POINT(%v %v)", c.lng, c.lat)
}

type coordinateJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MarshalJSON implements json.Marshaler.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(coordinateJSON{Lat: c.lat, Lng: c.lng})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting out of range values.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw coordinateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := NewCoordinate(raw.Lat, raw.Lng)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Value implements the driver.Valuer interface for database serialization.
func (c Coordinate) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (c *Coordinate) Scan(value interface{}) error {
	if value == nil {
		*c = Coordinate{}

		return nil
	}

	var lat, lng float64

	switch v := value.(type) {
	case []byte:
		if _, err := fmt.Sscanf(string(v), "POINT(%f %f)", &lng, &lat); err != nil {
			return err
		}
	case string:
		if _, err := fmt.Sscanf(v, "POINT(%f %f)", &lng, &lat); err != nil {
			return err
		}
	default:
		return fmt.Errorf("spatial: unsupported type for Coordinate scan: %T", value)
	}

	parsed, err := NewCoordinate(lat, lng)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}

// Distance returns the great-circle distance between a and b in kilometers,
// using the haversine formula.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := a.lat * math.Pi / 180
	lat2 := b.lat * math.Pi / 180
	dLat := (b.lat - a.lat) * math.Pi / 180
	dLng := (b.lng - a.lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// DistanceTo is a convenience wrapper around Distance.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	return Distance(c, other)
}

// Centroid returns the arithmetic mean of the given coordinates. It is only
// meaningful for points that are close to each other and do not straddle the
// antimeridian. An empty input returns the zero Coordinate.
func Centroid(coords []Coordinate) Coordinate {
	if len(coords) == 0 {
		return Coordinate{}
	}

	var lat, lng float64
	for _, c := range coords {
		lat += c.lat
		lng += c.lng
	}

	n := float64(len(coords))

	return Coordinate{lat: lat / n, lng: lng / n}
}
