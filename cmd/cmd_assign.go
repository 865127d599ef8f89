// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/treepickup/pickup/assign"
	"github.com/treepickup/pickup/config"
	"github.com/treepickup/pickup/geocode"
	"github.com/treepickup/pickup/input"
	"github.com/treepickup/pickup/report"
	"github.com/treepickup/pickup/utils/httputils"
)

type assignOptions struct {
	Addresses string
	Teams     int
	NoExport  bool
}

var assignOpts = &assignOptions{}

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Split the addresses of a CSV file into teams",
	Long: `Reads the 'address' column of a CSV file, geocodes every address (each
distinct address is looked up only once, ever, thanks to the cache), and
splits them into --teams geographically compact teams.

$ pickup assign --addresses trees.csv --teams 4
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		runID := uuid.New()
		logger := zap.L().With(zap.String("run_id", runID.String()))
		ctx := cmd.Context()

		addresses, err := input.ReadFile(assignOpts.Addresses)
		if err != nil {
			return err
		}

		logger.Info("addresses loaded",
			zap.String("file", assignOpts.Addresses),
			zap.Int("addresses", len(addresses)),
			zap.Int("teams", assignOpts.Teams))

		store, err := geocode.OpenCache(ctx, cfg.Cache.File, logger)
		if err != nil {
			return fmt.Errorf("opening geocoding cache: %w", err)
		}
		defer store.Close()

		resolver := geocode.NewResolver(newGeocoder(cfg), store,
			geocode.WithLogger(logger),
			geocode.WithProgress(os.Stderr))

		planner := assign.NewPlanner(resolver,
			assign.WithSeed(cfg.Cluster.Seed),
			assign.WithLogger(logger))

		result, err := planner.Assign(ctx, addresses, assignOpts.Teams)
		if err != nil {
			return err
		}

		if err := report.WriteTable(cmd.OutOrStdout(), result); err != nil {
			return fmt.Errorf("printing results: %w", err)
		}

		if isTerminal(os.Stdout) {
			if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				fmt.Fprint(cmd.OutOrStdout(), "\nGeographic Visualization:\n\n")

				if err := report.WriteMap(cmd.OutOrStdout(), result, width, height); err != nil {
					return fmt.Errorf("printing map: %w", err)
				}
			}
		}

		if !assignOpts.NoExport {
			path, err := report.Export(cfg.Output.Dir, result, report.Meta{RunID: runID, Time: time.Now()})
			if err != nil {
				logger.Warn("could not save results to file, results displayed above", zap.Error(err))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "\nResults saved to: %s\n", path)
			}
		}

		logger.Info("assignment complete",
			zap.Int("teams", len(result.Groups)),
			zap.Int("warnings", len(result.Warnings)),
			zap.Int("cached", store.Len()))

		return nil
	},
}

// newGeocoder builds the configured provider.
func newGeocoder(c *config.Config) geocode.Geocoder {
	userAgent := c.Geocoder.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("pickup/%s (+https://github.com/treepickup/pickup)", Version)
	}

	options := httputils.ClientOptions{
		UserAgent: userAgent,
		Timeout:   c.Geocoder.Timeout,
	}
	if c.Geocoder.TraceHTTP {
		options.TraceWriter = os.Stderr
		options.TraceBody = true
	}

	client := geocode.WithHTTPClient(httputils.NewClient(options))

	if c.Geocoder.Provider == config.ProviderGoogle {
		return geocode.NewGoogleMapsGeocoder(c.Geocoder.GoogleAPIKey, client)
	}

	return geocode.NewNominatimGeocoder(geocode.WithEndpoint(c.Geocoder.NominatimURL), client)
}

func init() {
	rootCmd.AddCommand(assignCmd)
	assignCmd.Flags().StringVar(
		&assignOpts.Addresses,
		"addresses",
		"",
		"CSV file with an 'address' column",
	)
	assignCmd.Flags().IntVar(
		&assignOpts.Teams,
		"teams",
		0,
		"Number of teams to create",
	)
	assignCmd.Flags().BoolVar(
		&assignOpts.NoExport,
		"no-export",
		false,
		"Do not write the results file",
	)
	assignCmd.Flags().Int64("seed", 42, "Seed for the clustering; the same seed gives the same teams")
	assignCmd.Flags().String("output-dir", ".", "Directory for the results file")
	assignCmd.Flags().String("provider", config.ProviderNominatim, "Geocoding provider: nominatim or google")
	assignCmd.Flags().String("nominatim-url", geocode.NominatimSearchEndpoint, "Nominatim search endpoint")
	assignCmd.Flags().String("google-api-key", "", "Google Maps API key, required by the google provider")
	assignCmd.Flags().String("user-agent", "", "User-Agent sent to the geocoding provider")
	assignCmd.Flags().Duration("timeout", 10*time.Second, "Timeout of a single geocoding request")
	assignCmd.Flags().Bool("trace-http", false, "Dump geocoding HTTP traffic to stderr")

	_ = assignCmd.MarkFlagRequired("addresses")
	_ = assignCmd.MarkFlagRequired("teams")
}
