// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DuckDBStore persists the cache in a DuckDB table. Besides the coordinate it
// stores the H3 cells of each point so cached locations can be grouped by
// neighbourhood with plain SQL.
type DuckDBStore struct {
	db     *sql.DB
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]ResolvedLocation
}

// OpenDuckDBStore opens (creating if needed) the database at path.
func OpenDuckDBStore(path string, logger *zap.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: open duckdb %s", path)
	}

	return NewDuckDBStore(db, path, logger), nil
}

// NewDuckDBStore wraps an already opened database. The store owns db and
// closes it on Close.
func NewDuckDBStore(db *sql.DB, path string, logger *zap.Logger) *DuckDBStore {
	return &DuckDBStore{
		db:      db,
		path:    path,
		logger:  loggerOrGlobal(logger),
		entries: map[string]ResolvedLocation{},
	}
}

// CreateSchema creates the cache table.
func (s *DuckDBStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			key VARCHAR PRIMARY KEY,
			point VARCHAR NOT NULL,
			display_name VARCHAR NOT NULL DEFAULT '',
			provider VARCHAR NOT NULL DEFAULT '',
			confidence VARCHAR NOT NULL DEFAULT '',
			h3_res7 UBIGINT,
			h3_res9 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)

	return eris.Wrap(err, "geocode: create cache schema")
}

// Load implements CacheStore.
func (s *DuckDBStore) Load(ctx context.Context) error {
	if err := s.CreateSchema(ctx); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, point, display_name, provider, confidence FROM geocode_cache`)
	if err != nil {
		return eris.Wrap(err, "geocode: query cache")
	}
	defer rows.Close()

	entries := map[string]ResolvedLocation{}

	for rows.Next() {
		var loc ResolvedLocation
		if err := rows.Scan(&loc.Key, &loc.Coordinate, &loc.DisplayName, &loc.Provider, &loc.Confidence); err != nil {
			s.logger.Warn("skipping invalid geocode cache row", zap.Error(err))

			continue
		}

		entries[loc.Key] = loc
	}

	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "geocode: read cache rows")
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("geocode cache loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))

	return nil
}

// Get implements CacheStore.
func (s *DuckDBStore) Get(key string) (ResolvedLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.entries[key]

	return loc, ok
}

// Put implements CacheStore.
func (s *DuckDBStore) Put(ctx context.Context, loc ResolvedLocation) error {
	if loc.Key == "" {
		return eris.New("geocode: cache entry without key")
	}

	loc.Input = ""

	s.mu.Lock()
	s.entries[loc.Key] = loc
	s.mu.Unlock()

	coarse, err := Cell(loc.Coordinate, CoarseCellResolution)
	if err != nil {
		return err
	}

	fine, err := Cell(loc.Coordinate, FineCellResolution)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (key, point, display_name, provider, confidence, h3_res7, h3_res9)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			point = EXCLUDED.point,
			display_name = EXCLUDED.display_name,
			provider = EXCLUDED.provider,
			confidence = EXCLUDED.confidence,
			h3_res7 = EXCLUDED.h3_res7,
			h3_res9 = EXCLUDED.h3_res9`,
		loc.Key, loc.Coordinate, loc.DisplayName, loc.Provider, loc.Confidence, int64(coarse), int64(fine),
	)

	return eris.Wrap(err, "geocode: store cache entry")
}

// NeighbourhoodCounts returns how many cached locations fall in each coarse
// H3 cell, keyed by the cell's hex index.
func (s *DuckDBStore) NeighbourhoodCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h3_res7, count(*) FROM geocode_cache
		WHERE h3_res7 IS NOT NULL
		GROUP BY h3_res7`)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: query neighbourhoods")
	}
	defer rows.Close()

	counts := map[string]int{}

	for rows.Next() {
		var (
			cell  uint64
			count int
		)

		if err := rows.Scan(&cell, &count); err != nil {
			return nil, eris.Wrap(err, "geocode: scan neighbourhood")
		}

		counts[h3Cell(cell).String()] = count
	}

	return counts, eris.Wrap(rows.Err(), "geocode: read neighbourhoods")
}

// Entries implements CacheStore.
func (s *DuckDBStore) Entries() []ResolvedLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedEntries(s.entries)
}

// Len implements CacheStore.
func (s *DuckDBStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Path implements CacheStore.
func (s *DuckDBStore) Path() string {
	return s.path
}

// Close implements CacheStore.
func (s *DuckDBStore) Close() error {
	return eris.Wrap(s.db.Close(), "geocode: close duckdb")
}
