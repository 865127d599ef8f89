// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeKey returns the cache identity of a location: NFC composed,
// lowercased, trimmed and with every whitespace run collapsed to one space.
func NormalizeKey(location string) string {
	return strings.Join(strings.Fields(strings.ToLower(norm.NFC.String(location))), " ")
}
