// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treepickup/pickup/geocode"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and convert the geocoding cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cached addresses",
	Long: `Prints every cached address with its coordinates and H3 cell. When the
cache is a DuckDB database it also prints how many addresses fall in each
neighbourhood (H3 resolution 7 cell).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := geocode.OpenCache(ctx, cfg.Cache.File, zap.L())
		if err != nil {
			return fmt.Errorf("opening geocoding cache: %w", err)
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		writeCacheEntries(out, store.Entries())

		db, ok := store.(*geocode.DuckDBStore)
		if !ok {
			return nil
		}

		counts, err := db.NeighbourhoodCounts(ctx)
		if err != nil {
			return err
		}

		writeNeighbourhoods(out, counts)

		return nil
	},
}

var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate FROM TO",
	Short: "Copy every cached address from one cache file to another",
	Long: `Copies the entries of one cache into another, converting between the JSON
and DuckDB formats according to the file extensions. Entries already present in
the destination are overwritten.

$ pickup cache migrate .geocode_cache.json geocode.duckdb
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := geocode.OpenCache(ctx, args[0], zap.L())
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer src.Close()

		dst, err := geocode.OpenCache(ctx, args[1], zap.L())
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[1], err)
		}
		defer dst.Close()

		n, err := geocode.Migrate(ctx, src, dst)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Copied %d addresses from %s to %s\n", n, src.Path(), dst.Path())

		return nil
	},
}

func writeCacheEntries(w io.Writer, entries []geocode.ResolvedLocation) {
	headers := []string{"Key", "Lat", "Lng", "H3", "Provider"}
	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, []string{
			runewidth.Truncate(e.Key, maxKeyWidth, "…"),
			fmt.Sprintf("%.6f", e.Coordinate.Lat()),
			fmt.Sprintf("%.6f", e.Coordinate.Lng()),
			geocode.CellString(e.Coordinate, geocode.FineCellResolution),
			e.Provider,
		})
	}

	writeColumns(w, headers, rows)
	fmt.Fprintf(w, "%d cached addresses\n", len(entries))
}

func writeNeighbourhoods(w io.Writer, counts map[string]int) {
	cells := make([]string, 0, len(counts))
	for cell := range counts {
		cells = append(cells, cell)
	}

	sort.Slice(cells, func(i, j int) bool {
		if counts[cells[i]] != counts[cells[j]] {
			return counts[cells[i]] > counts[cells[j]]
		}

		return cells[i] < cells[j]
	})

	rows := make([][]string, 0, len(cells))
	for _, cell := range cells {
		rows = append(rows, []string{cell, fmt.Sprint(counts[cell])})
	}

	fmt.Fprintln(w)
	writeColumns(w, []string{"Neighbourhood", "Addresses"}, rows)
}

const maxKeyWidth = 50

// writeColumns left aligns rows under headers, two spaces apart.
func writeColumns(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	line := func(cells []string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = runewidth.FillRight(cell, widths[i])
		}

		fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
	}

	line(headers)

	for _, row := range rows {
		line(row)
	}
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)
}
