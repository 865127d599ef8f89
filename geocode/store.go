// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultCacheFile is the cache used when none is configured.
const DefaultCacheFile = ".geocode_cache.json"

// CacheStore holds resolved locations keyed by NormalizeKey. The whole cache
// lives in memory after Load; Put persists before returning.
type CacheStore interface {
	// Load reads the persisted state, replacing what is in memory.
	Load(ctx context.Context) error

	// Get returns the cached location for a normalized key.
	Get(key string) (ResolvedLocation, bool)

	// Put stores loc under loc.Key and persists it. The in-memory cache is
	// updated even when persisting fails.
	Put(ctx context.Context, loc ResolvedLocation) error

	// Entries returns every cached location sorted by key.
	Entries() []ResolvedLocation

	// Len returns the number of cached locations.
	Len() int

	// Path returns where the cache is persisted.
	Path() string

	Close() error
}

// IsDuckDBPath reports whether path selects the DuckDB backed store.
func IsDuckDBPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".duckdb", ".db":
		return true
	default:
		return false
	}
}

// OpenCache opens and loads the store for path. Files ending in .duckdb or
// .db use DuckDB, anything else a JSON document.
func OpenCache(ctx context.Context, path string, logger *zap.Logger) (CacheStore, error) {
	if path == "" {
		path = DefaultCacheFile
	}

	var store CacheStore

	if IsDuckDBPath(path) {
		s, err := OpenDuckDBStore(path, logger)
		if err != nil {
			return nil, err
		}

		store = s
	} else {
		store = NewJSONStore(path, logger)
	}

	if err := store.Load(ctx); err != nil {
		_ = store.Close()

		return nil, err
	}

	return store, nil
}

// Migrate copies every entry of src into dst, returning how many were copied.
func Migrate(ctx context.Context, src, dst CacheStore) (int, error) {
	entries := src.Entries()
	for i, loc := range entries {
		if err := ctx.Err(); err != nil {
			return i, eris.Wrap(err, "geocode: migrate")
		}

		if err := dst.Put(ctx, loc); err != nil {
			return i, eris.Wrapf(err, "geocode: migrate entry %q", loc.Key)
		}
	}

	return len(entries), nil
}

func sortedEntries(m map[string]ResolvedLocation) []ResolvedLocation {
	entries := make([]ResolvedLocation, 0, len(m))
	for _, loc := range m {
		entries = append(entries, loc)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries
}

func loggerOrGlobal(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.L()
	}

	return logger
}
