// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"github.com/rotisserie/eris"
	"github.com/uber/h3-go/v4"

	"github.com/treepickup/pickup/spatial"
)

// Cell resolutions stored alongside cached coordinates. Resolution 7 cells are
// about 5 km² (a neighbourhood), resolution 9 about 0.1 km² (a few blocks).
const (
	CoarseCellResolution = 7
	FineCellResolution   = 9
)

// Cell returns the H3 cell containing c at the given resolution.
func Cell(c spatial.Coordinate, resolution int) (h3.Cell, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Lat(), c.Lng()), resolution)
	if err != nil {
		return 0, eris.Wrapf(err, "geocode: h3 cell at resolution %d", resolution)
	}

	return cell, nil
}

// CellString is Cell formatted as the usual hex index, empty on error.
func CellString(c spatial.Coordinate, resolution int) string {
	cell, err := Cell(c, resolution)
	if err != nil {
		return ""
	}

	return cell.String()
}

func h3Cell(v uint64) h3.Cell {
	return h3.Cell(v)
}
