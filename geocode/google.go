// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/treepickup/pickup/spatial"
)

const (
	// GoogleGeocodeEndpoint is the Google Maps Geocoding API.
	GoogleGeocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"
	googleName            = "google_maps"
)

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	provider
	apiKey string
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(apiKey string, opts ...ProviderOption) *GoogleMapsGeocoder {
	return &GoogleMapsGeocoder{
		provider: newProvider(GoogleGeocodeEndpoint, opts),
		apiKey:   apiKey,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// Name implements Geocoder.
func (g *GoogleMapsGeocoder) Name() string {
	return googleName
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	if g.apiKey == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "google maps api key not configured"}
	}

	params := url.Values{}
	params.Set("address", location)
	params.Set("key", g.apiKey)

	var gmResp googleMapsResponse
	if err := g.get(ctx, googleName, params, &gmResp); err != nil {
		return nil, err
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found for location: " + location}
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		return nil, &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "google maps status: " + gmResp.Status,
			Err:     statusDetail(gmResp.ErrorMessage),
		}
	case "INVALID_REQUEST":
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "google maps status: " + gmResp.Status}
	default:
		return nil, &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: "google maps status: " + gmResp.Status,
			Err:     statusDetail(gmResp.ErrorMessage),
		}
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found for location: " + location}
	}

	result := gmResp.Results[0]

	coord, err := spatial.NewCoordinate(result.Geometry.Location.Lat, result.Geometry.Location.Lng)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google result")
	}

	confidence := ConfidenceLow

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = ConfidenceHigh
	case "GEOMETRIC_CENTER":
		confidence = ConfidenceMedium
	}

	return &Result{
		Coordinate:  coord,
		Confidence:  confidence,
		Provider:    googleName,
		DisplayName: result.FormattedAddress,
	}, nil
}

func statusDetail(msg string) error {
	if msg == "" {
		return nil
	}

	return eris.New(msg)
}
