// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/treepickup/pickup/assign"
)

// Meta describes the run being exported.
type Meta struct {
	RunID uuid.UUID
	Time  time.Time
}

// FileName returns the export file name for a run.
func FileName(result *assign.Result, at time.Time) string {
	return fmt.Sprintf("tree-pickup-results-%s-%dteams-%daddrs.txt",
		at.Format("20060102-150405"), len(result.Groups), result.TotalLocations)
}

// Render returns the plain text export of result.
func Render(result *assign.Result, meta Meta) string {
	var b strings.Builder

	b.WriteString("Tree Pickup Results\n")
	fmt.Fprintf(&b, "Date: %s\n", meta.Time.Format(time.DateTime))

	if meta.RunID != uuid.Nil {
		fmt.Fprintf(&b, "Run: %s\n", meta.RunID)
	}

	fmt.Fprintf(&b, "Teams: %d\n", len(result.Groups))
	fmt.Fprintf(&b, "Addresses: %d\n", result.TotalLocations)
	fmt.Fprintf(&b, "Seed: %d\n", result.Seed)
	b.WriteString("\n")

	for _, g := range result.Groups {
		fmt.Fprintf(&b, "%s (%s)\n", g.Name, FormatKm(g.DistanceKm))

		for _, loc := range g.Locations {
			fmt.Fprintf(&b, "    %s\n", loc.Label())
		}

		b.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		b.WriteString("Warnings\n")

		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "    %s\n", w)
		}

		b.WriteString("\n")
	}

	return b.String()
}

// Export writes the plain text export into dir, creating it if needed, and
// returns the absolute path of the file.
func Export(dir string, result *assign.Result, meta Meta) (string, error) {
	if meta.Time.IsZero() {
		meta.Time = time.Now()
	}

	if dir == "" {
		dir = "."
	}

	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", eris.Errorf("report: '%s' exists but is not a directory", dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create %s", dir)
	}

	path, err := filepath.Abs(filepath.Join(dir, FileName(result, meta.Time)))
	if err != nil {
		return "", eris.Wrap(err, "report: resolve export path")
	}

	if err := os.WriteFile(path, []byte(Render(result, meta)), 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write %s", path)
	}

	return path, nil
}
