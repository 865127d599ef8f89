// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package report renders assignment results for people: a table on the
// terminal and a plain text file to share.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/treepickup/pickup/assign"
)

const (
	maxAddressWidth = 60
	warningMarker   = " ⚠"
	bullet          = "• "
)

// DistanceNote explains what the distance column means.
const DistanceNote = "Note: Distances are straight-line (as-the-crow-flies) estimates and may differ from actual driving routes."

type tableRow struct {
	team      string
	addresses []string
	distance  string
}

// WriteTable writes one row per team with its addresses and estimated
// distance, followed by the warnings.
func WriteTable(w io.Writer, result *assign.Result) error {
	rows := make([]tableRow, 0, len(result.Groups))
	headers := [3]string{"Team", "Addresses", "Estimated Distance (direct)"}
	widths := [3]int{
		runewidth.StringWidth(headers[0]),
		runewidth.StringWidth(headers[1]),
		runewidth.StringWidth(headers[2]),
	}

	for _, g := range result.Groups {
		row := tableRow{team: g.Name, distance: FormatKm(g.DistanceKm)}
		if len(g.Warnings) > 0 {
			row.team += warningMarker
		}

		for _, loc := range g.Locations {
			row.addresses = append(row.addresses,
				runewidth.Truncate(bullet+loc.Label(), maxAddressWidth, "…"))
		}

		widths[0] = max(widths[0], runewidth.StringWidth(row.team))
		widths[2] = max(widths[2], runewidth.StringWidth(row.distance))

		for _, a := range row.addresses {
			widths[1] = max(widths[1], runewidth.StringWidth(a))
		}

		rows = append(rows, row)
	}

	var b strings.Builder

	rule := func(left, mid, right string) {
		b.WriteString(left)

		for i, width := range widths {
			if i > 0 {
				b.WriteString(mid)
			}

			b.WriteString(strings.Repeat("─", width+2))
		}

		b.WriteString(right + "\n")
	}

	line := func(team, address, distance string) {
		fmt.Fprintf(&b, "│ %s │ %s │ %s │\n",
			runewidth.FillRight(team, widths[0]),
			runewidth.FillRight(address, widths[1]),
			runewidth.FillLeft(distance, widths[2]))
	}

	fmt.Fprintln(&b, DistanceNote)
	fmt.Fprintln(&b)

	rule("╭", "┬", "╮")
	line(headers[0], headers[1], headers[2])

	for _, row := range rows {
		rule("├", "┼", "┤")

		for i, a := range row.addresses {
			if i == 0 {
				line(row.team, a, row.distance)
			} else {
				line("", a, "")
			}
		}
	}

	rule("╰", "┴", "╯")

	fmt.Fprintf(&b, "Total estimated distance: %s\n", FormatKm(result.TotalDistanceKm()))

	if len(result.Warnings) > 0 {
		fmt.Fprintln(&b)

		for _, warning := range result.Warnings {
			fmt.Fprintf(&b, "⚠ WARNING: %s\n", warning)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// FormatKm formats a distance in kilometers with two decimals.
func FormatKm(km float64) string {
	return fmt.Sprintf("%.2f km", km)
}
