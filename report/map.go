// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/treepickup/pickup/assign"
	"github.com/treepickup/pickup/quality"
)

// Smallest terminal the map is drawn on.
const (
	MinMapWidth  = 40
	MinMapHeight = 20
)

// The plot leaves room for the frame, the legend and the surrounding output.
const (
	mapMarginX = 20
	mapMarginY = 10
)

const markers = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Marker returns the character that plots the members of the i-th group.
func Marker(i int) byte {
	return markers[i%len(markers)]
}

type mapPoint struct {
	lat, lng float64
	marker   byte
}

type cell struct{ x, y int }

// WriteMap draws where the members of every group sit, for a terminal of
// width columns and height rows. Global outliers are left out so they do not
// squash everybody else into a corner. When two members share a cell, the
// group listed first keeps it.
func WriteMap(w io.Writer, result *assign.Result, width, height int) error {
	var b strings.Builder

	if width < MinMapWidth || height < MinMapHeight {
		fmt.Fprintf(&b, "Terminal too small for the map (min %dx%d), skipping.\n", MinMapWidth, MinMapHeight)

		_, err := io.WriteString(w, b.String())

		return err
	}

	points := mapPoints(result)
	if len(points) == 0 {
		return nil
	}

	minLat, maxLat := points[0].lat, points[0].lat
	minLng, maxLng := points[0].lng, points[0].lng

	for _, p := range points[1:] {
		minLat, maxLat = min(minLat, p.lat), max(maxLat, p.lat)
		minLng, maxLng = min(minLng, p.lng), max(maxLng, p.lng)
	}

	plotWidth := width - mapMarginX
	plotHeight := height - mapMarginY

	scaleX := func(lng float64) int {
		return int((lng - minLng) / (maxLng - minLng) * float64(plotWidth-1))
	}

	scaleY := func(lat float64) int {
		return int((maxLat - lat) / (maxLat - minLat) * float64(plotHeight-1))
	}

	grid := map[cell]byte{}

	plot := func(x, y int, marker byte) {
		if _, taken := grid[cell{x, y}]; !taken {
			grid[cell{x, y}] = marker
		}
	}

	switch {
	case minLat == maxLat && minLng == maxLng:
		fmt.Fprintln(&b, "All addresses at the same location, showing a simplified map.")
		fmt.Fprintf(&b, "%c (%d addresses)\n", points[0].marker, len(points))
		writeLegend(&b, result, width)

		_, err := io.WriteString(w, b.String())

		return err

	case minLng == maxLng:
		fmt.Fprintln(&b, "All addresses at the same longitude, showing a simplified map.")

		for _, p := range points {
			plot(plotWidth/2, scaleY(p.lat), p.marker)
		}

	case minLat == maxLat:
		fmt.Fprintln(&b, "All addresses at the same latitude, showing a simplified map.")

		for _, p := range points {
			plot(scaleX(p.lng), plotHeight/2, p.marker)
		}

	default:
		for _, p := range points {
			plot(scaleX(p.lng), scaleY(p.lat), p.marker)
		}
	}

	border := "+" + strings.Repeat("-", plotWidth+2) + "+\n"
	row := make([]byte, plotWidth)

	b.WriteString(border)

	for y := range plotHeight {
		for x := range row {
			row[x] = ' '
			if m, ok := grid[cell{x, y}]; ok {
				row[x] = m
			}
		}

		fmt.Fprintf(&b, "| %s |\n", row)
	}

	b.WriteString(border)
	writeLegend(&b, result, width)

	_, err := io.WriteString(w, b.String())

	return err
}

// mapPoints lists the members of every group except global outliers.
func mapPoints(result *assign.Result) []mapPoint {
	outliers := map[int]bool{}

	for _, warning := range result.Warnings {
		if warning.Kind == quality.KindGlobalOutlier && warning.Position > 0 {
			outliers[warning.Position] = true
		}
	}

	var points []mapPoint

	for g, group := range result.Groups {
		for i, loc := range group.Locations {
			if i < len(group.Positions) && outliers[group.Positions[i]] {
				continue
			}

			points = append(points, mapPoint{
				lat:    loc.Coordinate.Lat(),
				lng:    loc.Coordinate.Lng(),
				marker: Marker(g),
			})
		}
	}

	return points
}

// writeLegend lists "marker name" for every group, wrapped at width.
func writeLegend(b *strings.Builder, result *assign.Result, width int) {
	line := ""

	for g, group := range result.Groups {
		entry := fmt.Sprintf("%c %s", Marker(g), group.Name)

		if line != "" && runewidth.StringWidth(line)+2+runewidth.StringWidth(entry) > width {
			b.WriteString(line + "\n")
			line = ""
		}

		if line != "" {
			line += "  "
		}

		line += entry
	}

	if line != "" {
		b.WriteString(line + "\n")
	}
}
