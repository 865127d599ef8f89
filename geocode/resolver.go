// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultLookupInterval is the minimum time between two provider calls.
	// The public Nominatim usage policy allows one request per second.
	DefaultLookupInterval = time.Second

	// longRunNotice is the number of pending lookups above which the user is
	// told how long geocoding will take.
	longRunNotice = 30
)

// Resolver turns raw locations into coordinates, consulting the cache first
// and the geocoder only for misses.
type Resolver struct {
	geocoder Geocoder
	store    CacheStore
	limiter  *rate.Limiter
	interval time.Duration
	logger   *zap.Logger
	progress *os.File
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithInterval sets the minimum time between provider calls.
func WithInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.interval = d
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithLimiter replaces the limiter that spaces provider calls.
func WithLimiter(l *rate.Limiter) ResolverOption {
	return func(r *Resolver) {
		r.limiter = l
	}
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithProgress reports lookups on f: a progress bar when f is a terminal,
// and a notice with the expected duration of long runs.
func WithProgress(f *os.File) ResolverOption {
	return func(r *Resolver) {
		r.progress = f
	}
}

// NewResolver creates a Resolver reading and writing store.
func NewResolver(geocoder Geocoder, store CacheStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		store:    store,
		interval: DefaultLookupInterval,
		limiter:  rate.NewLimiter(rate.Every(DefaultLookupInterval), 1),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = zap.L()
	}

	return r
}

// Pending returns how many distinct locations in inputs are not cached.
func (r *Resolver) Pending(inputs []string) int {
	seen := map[string]bool{}
	pending := 0

	for _, in := range inputs {
		key := NormalizeKey(in)
		if key == "" || seen[key] {
			continue
		}

		seen[key] = true

		if _, ok := r.store.Get(key); !ok {
			pending++
		}
	}

	return pending
}

// Resolve returns one ResolvedLocation per input, in input order. Cache
// misses are geocoded one at a time, spaced by the limiter, and persisted
// before the next input is looked at. The first location that cannot be
// resolved aborts the call with a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, inputs []string) ([]ResolvedLocation, error) {
	pending := r.Pending(inputs)
	bar := r.startProgress(pending)

	defer func() {
		if bar != nil {
			_ = bar.Finish()
		}
	}()

	resolved := make([]ResolvedLocation, 0, len(inputs))

	for i, in := range inputs {
		key := NormalizeKey(in)
		if key == "" {
			return nil, &ResolutionError{
				Position: i + 1,
				Text:     in,
				Err:      &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "empty address"},
			}
		}

		if cached, ok := r.store.Get(key); ok {
			r.logger.Debug("geocode cache hit", zap.String("key", key))

			cached.Input = in
			resolved = append(resolved, cached)

			continue
		}

		loc, err := r.lookup(ctx, in, key)
		if err != nil {
			return nil, &ResolutionError{Position: i + 1, Text: in, Err: err}
		}

		if loc.Confidence == ConfidenceLow {
			r.logger.Warn("low confidence geocoding result, verify this address",
				zap.Int("position", i+1),
				zap.String("address", in),
				zap.String("matched", loc.DisplayName))
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		resolved = append(resolved, loc)
	}

	return resolved, nil
}

func (r *Resolver) lookup(ctx context.Context, in, key string) (ResolvedLocation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ResolvedLocation{}, err
	}

	r.logger.Debug("geocode cache miss", zap.String("key", key), zap.String("provider", r.geocoder.Name()))

	res, err := r.geocoder.Geocode(ctx, in)
	if err != nil {
		return ResolvedLocation{}, err
	}

	provider := res.Provider
	if provider == "" {
		provider = r.geocoder.Name()
	}

	loc := ResolvedLocation{
		Input:       in,
		Key:         key,
		Coordinate:  res.Coordinate,
		DisplayName: res.DisplayName,
		Provider:    provider,
		Confidence:  res.Confidence,
	}

	if err := r.store.Put(ctx, loc); err != nil {
		r.logger.Warn("could not persist geocode cache", zap.String("path", r.store.Path()), zap.Error(err))
	}

	return loc, nil
}

func (r *Resolver) startProgress(pending int) *progressbar.ProgressBar {
	if r.progress == nil || pending == 0 {
		return nil
	}

	if pending > longRunNotice {
		seconds := int((time.Duration(pending) * r.interval).Seconds())
		fmt.Fprintf(r.progress,
			"Geocoding %d new addresses, this will take approximately %d seconds...\n", pending, seconds)
	}

	if !isatty.IsTerminal(r.progress.Fd()) {
		return nil
	}

	return progressbar.NewOptions(pending,
		progressbar.OptionSetDescription("Geocoding"),
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
}
