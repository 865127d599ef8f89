// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package quality flags groups whose addresses look wrong: members that are
// too far apart, or a group whose estimated distance is implausibly large.
// Checks only produce warnings; they never change a group.
package quality

import (
	"fmt"

	"github.com/treepickup/pickup/spatial"
)

const (
	// OutlierThresholdKm is the largest distance allowed between two members
	// of the same group, about 10 miles.
	OutlierThresholdKm = 16.0

	// HighDistanceThresholdKm is the largest spanning tree estimate allowed
	// for a group, about 50 miles.
	HighDistanceThresholdKm = 80.0

	// GlobalOutlierThresholdKm is the largest distance allowed between a
	// location and the centroid of all locations.
	GlobalOutlierThresholdKm = 50.0

	kmToMiles = 0.621371
)

// Kind identifies the check that produced a Warning.
type Kind string

const (
	KindOutlier       Kind = "outlier"
	KindHighDistance  Kind = "high_distance"
	KindGlobalOutlier Kind = "global_outlier"
)

// Warning is a non-fatal data quality finding.
type Warning struct {
	Kind Kind `json:"kind"`

	// Group is the name of the group the warning belongs to, empty for
	// warnings about the whole input.
	Group string `json:"group,omitempty"`

	// Position is the 1-based input position of the location a global
	// outlier warning is about, zero otherwise.
	Position int    `json:"position,omitempty"`
	Message  string `json:"message"`
}

func (w Warning) String() string {
	if w.Group == "" {
		return w.Message
	}

	return w.Group + " - " + w.Message
}

// CheckGroup runs the per-group checks. mstKm is the group's spanning tree
// estimate, see spatial.EstimateMST.
func CheckGroup(group string, coords []spatial.Coordinate, mstKm float64) []Warning {
	var warnings []Warning

	if _, _, ok := FarthestPairOver(coords, OutlierThresholdKm); ok {
		warnings = append(warnings, Warning{
			Kind:    KindOutlier,
			Group:   group,
			Message: "Addresses more than 10 miles apart detected",
		})
	}

	if mstKm > HighDistanceThresholdKm {
		warnings = append(warnings, Warning{
			Kind:  KindHighDistance,
			Group: group,
			Message: fmt.Sprintf("Estimated distance is %.2f km (%.2f miles) - verify addresses are correct",
				mstKm, mstKm*kmToMiles),
		})
	}

	return warnings
}

// FarthestPairOver returns the first pair (i < j, in index order) farther
// apart than thresholdKm.
func FarthestPairOver(coords []spatial.Coordinate, thresholdKm float64) (int, int, bool) {
	for i := 0; i < len(coords); i++ {
		for j := i + 1; j < len(coords); j++ {
			if spatial.Distance(coords[i], coords[j]) > thresholdKm {
				return i, j, true
			}
		}
	}

	return 0, 0, false
}

// GlobalOutliers flags locations far from the centroid of all locations.
// labels[i] names coords[i] in the message. Inputs of two or fewer
// locations have no meaningful centroid and are never flagged.
func GlobalOutliers(labels []string, coords []spatial.Coordinate) []Warning {
	if len(coords) <= 2 {
		return nil
	}

	center := spatial.Centroid(coords)

	var warnings []Warning

	for i, c := range coords {
		if spatial.Distance(c, center) <= GlobalOutlierThresholdKm {
			continue
		}

		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		warnings = append(warnings, Warning{
			Kind:     KindGlobalOutlier,
			Position: i + 1,
			Message: fmt.Sprintf("Address #%d %q is far from the main group - please verify this address is correct", i+1, label),
		})
	}

	return warnings
}
