// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package assign

import "fmt"

var natoAlphabet = []string{
	"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf",
	"Hotel", "India", "Juliet", "Kilo", "Lima", "Mike", "November",
	"Oscar", "Papa", "Quebec", "Romeo", "Sierra", "Tango", "Uniform",
	"Victor", "Whiskey", "X-ray", "Yankee", "Zulu",
}

// TeamNames returns count names from the NATO alphabet: "Team Alpha" to
// "Team Zulu", then "Team Alpha 2" and so on.
func TeamNames(count int) []string {
	names := make([]string, 0, max(count, 0))

	for i := 0; i < count; i++ {
		word := natoAlphabet[i%len(natoAlphabet)]

		if cycle := i / len(natoAlphabet); cycle > 0 {
			names = append(names, fmt.Sprintf("Team %s %d", word, cycle+1))
		} else {
			names = append(names, "Team "+word)
		}
	}

	return names
}
