// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import "fmt"

// InvalidTeamCountError is returned when the number of teams is not between
// 1 and the number of locations.
type InvalidTeamCountError struct {
	Teams     int
	Locations int
}

func (e *InvalidTeamCountError) Error() string {
	if e.Teams < 1 {
		return fmt.Sprintf("team count must be at least 1 (got %d)", e.Teams)
	}

	return fmt.Sprintf("cannot create %d teams with only %d addresses", e.Teams, e.Locations)
}

// Hint returns a corrective action for the user.
func (e *InvalidTeamCountError) Hint() string {
	if e.Teams < 1 {
		return "use at least one team"
	}

	return "reduce team count or add more addresses"
}

// CheckTeamCount validates 1 <= teams <= locations.
func CheckTeamCount(teams, locations int) error {
	if teams < 1 || teams > locations {
		return &InvalidTeamCountError{Teams: teams, Locations: locations}
	}

	return nil
}
