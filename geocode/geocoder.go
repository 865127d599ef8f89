// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode turns free-text locations into coordinates, remembering
// every answer in a persistent cache so each distinct location is looked up
// at most once.
package geocode

import (
	"context"

	"github.com/treepickup/pickup/spatial"
)

// How precisely a provider matched a location.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Result represents a geocoding result from any provider.
type Result struct {
	Coordinate  spatial.Coordinate
	DisplayName string
	Confidence  string // high, medium, low
	Provider    string
}

// Geocoder resolves a single free-text location. Implementations report a
// location without matches as a *GeocodingError of type ErrorTypeNotFound.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, location string) (*Result, error)
}

// ResolvedLocation is a location whose coordinate is known.
type ResolvedLocation struct {
	// Input is the raw text as given by the caller. Empty for entries that
	// come straight from a cache store.
	Input string `json:"-"`

	// Key is the normalized form of Input, see NormalizeKey.
	Key string `json:"key"`

	Coordinate  spatial.Coordinate `json:"coordinate"`
	DisplayName string             `json:"display_name,omitempty"`
	Provider    string             `json:"provider,omitempty"`

	// Confidence is the provider's Result.Confidence, empty when unknown.
	Confidence string `json:"confidence,omitempty"`
}

// Label returns the text that best identifies the location to a person.
func (l ResolvedLocation) Label() string {
	if l.Input != "" {
		return l.Input
	}

	if l.DisplayName != "" {
		return l.DisplayName
	}

	return l.Key
}
