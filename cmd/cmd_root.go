// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treepickup/pickup/config"
	"github.com/treepickup/pickup/geocode"
)

var rootCmd = &cobra.Command{
	Use:   "pickup",
	Short: "split pickup addresses into geographically compact teams",
	Long: `
pickup reads a list of addresses, geocodes them (remembering every answer in a
local cache), and splits them into a number of teams so that each team's
addresses are close to each other. For every team it estimates the direct
distance needed to visit all its addresses and warns about addresses that look
misplaced.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		if err := c.Validate(); err != nil {
			return err
		}

		if err := config.InitLogger(c.Log); err != nil {
			return err
		}

		cfg = c

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

// cfg is the configuration of the running command, loaded before it runs.
var cfg *config.Config

var Version = "dev"

// hinter is implemented by errors that know how the user can fix them.
type hinter interface {
	Hint() string
}

// printError writes err and, when available, a corrective hint.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)

	var h hinter
	if errors.As(err, &h) && h.Hint() != "" {
		fmt.Fprintf(w, "Hint: %s\n", h.Hint())
	}
}

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String(
		"cache-file",
		geocode.DefaultCacheFile,
		"Geocoding cache; a .duckdb or .db extension selects the DuckDB store",
	)
	rootCmd.PersistentFlags().String(
		"log-level",
		"info",
		"Log level: debug, info, warn or error",
	)
	rootCmd.PersistentFlags().String(
		"log-format",
		"console",
		"Log format: console or json",
	)
}
