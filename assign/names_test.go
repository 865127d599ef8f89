// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamNames(t *testing.T) {
	assert.Empty(t, TeamNames(0))
	assert.Equal(t, []string{"Team Alpha", "Team Bravo", "Team Charlie"}, TeamNames(3))

	names := TeamNames(28)
	assert.Equal(t, "Team Zulu", names[25])
	assert.Equal(t, "Team Alpha 2", names[26])
	assert.Equal(t, "Team Bravo 2", names[27])

	seen := map[string]bool{}
	for _, n := range TeamNames(60) {
		assert.False(t, seen[n], "duplicate name %q", n)
		seen[n] = true
	}
}
