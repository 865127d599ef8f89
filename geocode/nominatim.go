// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/treepickup/pickup/spatial"
	"github.com/treepickup/pickup/utils/httputils"
)

const (
	// NominatimSearchEndpoint is the public OpenStreetMap search API.
	NominatimSearchEndpoint = "https://nominatim.openstreetmap.org/search"
	nominatimName           = "osm-nominatim"
)

// ProviderOption configures a geocoding provider.
type ProviderOption func(*provider)

type provider struct {
	endpoint   string
	httpClient *http.Client
}

// WithEndpoint overrides the provider's base URL, e.g. a self-hosted
// Nominatim or a test server.
func WithEndpoint(endpoint string) ProviderOption {
	return func(p *provider) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(hc *http.Client) ProviderOption {
	return func(p *provider) {
		if hc != nil {
			p.httpClient = hc
		}
	}
}

func newProvider(endpoint string, opts []ProviderOption) provider {
	p := provider{endpoint: endpoint}
	for _, opt := range opts {
		opt(&p)
	}

	if p.httpClient == nil {
		p.httpClient = httputils.NewClient(httputils.ClientOptions{})
	}

	return p
}

// get performs a GET and decodes a 200 response into dst. Other statuses
// become a classified *GeocodingError.
func (p provider) get(ctx context.Context, name string, query url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s build request", name)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		errType := ErrorTypeNetworkError
		if IsTimeoutError(err) {
			errType = ErrorTypeTimeout
		}

		return &GeocodingError{Type: errType, Message: name + ": request failed", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return ClassifyHTTPError(resp.StatusCode, name)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s read body", name)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return eris.Wrapf(err, "geocode: %s parse response", name)
	}

	return nil
}

// NominatimGeocoder uses the OpenStreetMap Nominatim search API. The public
// instance allows one request per second and requires a User-Agent.
type NominatimGeocoder struct {
	provider
}

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// NewNominatimGeocoder creates a Nominatim geocoder.
func NewNominatimGeocoder(opts ...ProviderOption) *NominatimGeocoder {
	return &NominatimGeocoder{provider: newProvider(NominatimSearchEndpoint, opts)}
}

// Name implements Geocoder.
func (n *NominatimGeocoder) Name() string {
	return nominatimName
}

// Geocode implements Geocoder.
func (n *NominatimGeocoder) Geocode(ctx context.Context, location string) (*Result, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("limit", "1")
	query.Set("q", location)

	var results []nominatimResult
	if err := n.get(ctx, nominatimName, query, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "no results found for location: " + location,
		}
	}

	first := results[0]

	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse latitude")
	}

	lng, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse longitude")
	}

	coord, err := spatial.NewCoordinate(lat, lng)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim result")
	}

	confidence := ConfidenceLow

	switch {
	case first.Importance >= 0.5:
		confidence = ConfidenceHigh
	case first.Importance >= 0.2:
		confidence = ConfidenceMedium
	}

	return &Result{
		Coordinate:  coord,
		DisplayName: first.DisplayName,
		Confidence:  confidence,
		Provider:    nominatimName,
	}, nil
}
