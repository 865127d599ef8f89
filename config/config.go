// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads settings from pickup.yaml, PICKUP_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/treepickup/pickup/cluster"
	"github.com/treepickup/pickup/geocode"
)

// Supported geocoding providers.
const (
	ProviderNominatim = "nominatim"
	ProviderGoogle    = "google"
)

// Config holds the full application configuration.
type Config struct {
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Cluster  ClusterConfig  `yaml:"cluster" mapstructure:"cluster"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// CacheConfig configures the geocoding cache. A path ending in .duckdb or
// .db selects the DuckDB store.
type CacheConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// ClusterConfig configures team clustering.
type ClusterConfig struct {
	Seed int64 `yaml:"seed" mapstructure:"seed"`
}

// GeocoderConfig configures the geocoding provider.
type GeocoderConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"`
	NominatimURL string        `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	GoogleAPIKey string        `yaml:"google_api_key" mapstructure:"google_api_key"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	TraceHTTP    bool          `yaml:"trace_http" mapstructure:"trace_http"`
}

// OutputConfig configures where result files are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"cache-file":     "cache.file",
	"seed":           "cluster.seed",
	"provider":       "geocoder.provider",
	"nominatim-url":  "geocoder.nominatim_url",
	"google-api-key": "geocoder.google_api_key",
	"user-agent":     "geocoder.user_agent",
	"timeout":        "geocoder.timeout",
	"trace-http":     "geocoder.trace_http",
	"output-dir":     "output.dir",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load reads configuration from file, environment and the given flags.
// Flags that were not set on the command line do not override other
// sources. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("pickup")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PICKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.file", geocode.DefaultCacheFile)
	v.SetDefault("cluster.seed", cluster.DefaultSeed)
	v.SetDefault("geocoder.provider", ProviderNominatim)
	v.SetDefault("geocoder.nominatim_url", geocode.NominatimSearchEndpoint)
	v.SetDefault("geocoder.google_api_key", "")
	v.SetDefault("geocoder.user_agent", "")
	v.SetDefault("geocoder.timeout", 10*time.Second)
	v.SetDefault("geocoder.trace_http", false)
	v.SetDefault("output.dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, eris.Wrapf(err, "config: bind flag %s", name)
				}
			}
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings that cannot be checked by type alone.
func (c *Config) Validate() error {
	switch c.Geocoder.Provider {
	case ProviderNominatim:
	case ProviderGoogle:
		if c.Geocoder.GoogleAPIKey == "" {
			return eris.New("config: geocoder.google_api_key is required for the google provider")
		}
	default:
		return eris.Errorf("config: unknown geocoder.provider %q (use %s or %s)",
			c.Geocoder.Provider, ProviderNominatim, ProviderGoogle)
	}

	if c.Geocoder.Timeout <= 0 {
		return eris.Errorf("config: geocoder.timeout must be positive (got %s)", c.Geocoder.Timeout)
	}

	if c.Cache.File == "" {
		return eris.New("config: cache.file must not be empty")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return eris.Errorf("config: unknown log.format %q (use console or json)", c.Log.Format)
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}

	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}

	zap.ReplaceGlobals(logger)

	return nil
}
