// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/treepickup/pickup/geocode"
	"github.com/treepickup/pickup/spatial"
)

const kmToMiles = 0.621371

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugNormalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Print the cache key of every address read from stdin",
	Long: `Reads one address per line, and prints the address followed by the key
used to look it up in the geocoding cache.

$ echo "  123 MAIN st " | pickup debug normalize
  123 MAIN st 	"123 main st"
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if isTerminal(os.Stdin) {
			fmt.Fprintln(os.Stderr, "Enter addresses to normalize, one per line…")
		}

		return normalizeLines(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func normalizeLines(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintf(w, "%s\t%q\n", line, geocode.NormalizeKey(line))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

var debugDistanceCmd = &cobra.Command{
	Use:   "distance LAT1 LNG1 LAT2 LNG2",
	Short: "Great-circle distance between two points",
	Example: `$ pickup debug distance 39.9526 -75.1652 40.7128 -74.0060
129.61 km (80.54 miles)`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := parseCoordinate(args[0], args[1])
		if err != nil {
			return err
		}

		b, err := parseCoordinate(args[2], args[3])
		if err != nil {
			return err
		}

		km := spatial.Distance(a, b)
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f km (%.2f miles)\n", km, km*kmToMiles)

		return nil
	},
}

var debugMSTCmd = &cobra.Command{
	Use:   "mst",
	Short: "Minimum spanning tree of the points read from stdin",
	Long: `Reads one "lat,lng" point per line and prints the edges of the minimum
spanning tree followed by its total length, the same estimate reported for
every team.

$ printf '0,0\n0,1\n1,1\n' | pickup debug mst
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if isTerminal(os.Stdin) {
			fmt.Fprintln(os.Stderr, "Enter points as lat,lng, one per line…")
		}

		return printSpanningTree(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func printSpanningTree(r io.Reader, w io.Writer) error {
	var coords []spatial.Coordinate

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		lat, lng, ok := strings.Cut(text, ",")
		if !ok {
			return fmt.Errorf("line %d: expected lat,lng (got %q)", line, text)
		}

		c, err := parseCoordinate(lat, lng)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		coords = append(coords, c)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	edges, total := spatial.SpanningTree(coords)
	for _, e := range edges {
		fmt.Fprintf(w, "%d\t%d\t%.3f km\n", e.From+1, e.To+1, e.Km)
	}

	fmt.Fprintf(w, "total\t%.2f km (%.2f miles)\n", total, total*kmToMiles)

	return nil
}

func parseCoordinate(lat, lng string) (spatial.Coordinate, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return spatial.Coordinate{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}

	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return spatial.Coordinate{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}

	return spatial.NewCoordinate(la, ln)
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugNormalizeCmd)
	debugCmd.AddCommand(debugDistanceCmd)
	debugCmd.AddCommand(debugMSTCmd)
}
