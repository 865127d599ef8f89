// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normal", "123 main st", "123 main st"},
		{"case", "123 MAIN St", "123 main st"},
		{"trim", "  123 main st \t", "123 main st"},
		{"collapse runs", "123   main\t\tst", "123 main st"},
		{"newlines", "123 main st\nphiladelphia", "123 main st philadelphia"},
		{"empty", "   ", ""},
		{"decomposed accent is composed", "Cafe\u0301  Street", "caf\u00e9 street"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestResolvedLocationLabel(t *testing.T) {
	assert.Equal(t, "123 Main St", ResolvedLocation{Input: "123 Main St", Key: "123 main st"}.Label())
	assert.Equal(t, "Main St, Town", ResolvedLocation{Key: "123 main st", DisplayName: "Main St, Town"}.Label())
	assert.Equal(t, "123 main st", ResolvedLocation{Key: "123 main st"}.Label())
}
