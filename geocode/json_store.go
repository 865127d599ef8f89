// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/treepickup/pickup/spatial"
)

// JSONStore persists the cache as a single JSON object mapping normalized
// keys to coordinates. Every Put rewrites the file through a temporary file
// and a rename, so a reader never sees a partial document.
type JSONStore struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]ResolvedLocation
}

// jsonRecord is the on-disk form of an entry. Lat and Lng are accepted on
// read for caches written by older versions.
type jsonRecord struct {
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	DisplayName string   `json:"display_name"`
	Provider    string   `json:"provider,omitempty"`
	Confidence  string   `json:"confidence,omitempty"`
}

func (r jsonRecord) coordinate() (spatial.Coordinate, error) {
	lat, lng := r.Latitude, r.Longitude
	if lat == nil {
		lat = r.Lat
	}

	if lng == nil {
		lng = r.Lng
	}

	if lat == nil || lng == nil {
		return spatial.Coordinate{}, errors.New("missing latitude or longitude")
	}

	return spatial.NewCoordinate(*lat, *lng)
}

// NewJSONStore returns an empty store backed by path. Call Load to read it.
func NewJSONStore(path string, logger *zap.Logger) *JSONStore {
	return &JSONStore{
		path:    path,
		logger:  loggerOrGlobal(logger),
		entries: map[string]ResolvedLocation{},
	}
}

// Load implements CacheStore. A missing or unreadable file leaves the cache
// empty; it never fails.
func (s *JSONStore) Load(_ context.Context) error {
	entries := map[string]ResolvedLocation{}

	defer func() {
		s.mu.Lock()
		s.entries = entries
		s.mu.Unlock()
	}()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("geocode cache not found, starting empty", zap.String("path", s.path))

		return nil
	}

	if err != nil {
		s.logger.Warn("geocode cache unreadable, starting empty", zap.String("path", s.path), zap.Error(err))

		return nil
	}

	var records map[string]jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("geocode cache is corrupted, starting empty", zap.String("path", s.path), zap.Error(err))

		return nil
	}

	rawKeys := make([]string, 0, len(records))
	for rawKey := range records {
		rawKeys = append(rawKeys, rawKey)
	}

	sort.Strings(rawKeys)

	// Several raw keys can normalize to the same key. The one already in
	// normalized form wins, otherwise the first in sorted order.
	sources := map[string]string{}

	for _, rawKey := range rawKeys {
		rec := records[rawKey]

		coord, err := rec.coordinate()
		if err != nil {
			s.logger.Warn("skipping invalid geocode cache entry", zap.String("key", rawKey), zap.Error(err))

			continue
		}

		key := NormalizeKey(rawKey)
		if key == "" {
			continue
		}

		if kept, dup := sources[key]; dup {
			dropped := rawKey
			if rawKey == key {
				kept, dropped = rawKey, kept
			}

			s.logger.Warn("duplicate geocode cache entry ignored",
				zap.String("key", key), zap.String("kept", kept), zap.String("ignored", dropped))

			if rawKey != key {
				continue
			}
		}

		sources[key] = rawKey
		entries[key] = ResolvedLocation{
			Key:         key,
			Coordinate:  coord,
			DisplayName: rec.DisplayName,
			Provider:    rec.Provider,
			Confidence:  rec.Confidence,
		}
	}

	s.logger.Debug("geocode cache loaded", zap.String("path", s.path), zap.Int("entries", len(entries)))

	return nil
}

// Get implements CacheStore.
func (s *JSONStore) Get(key string) (ResolvedLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.entries[key]

	return loc, ok
}

// Put implements CacheStore.
func (s *JSONStore) Put(_ context.Context, loc ResolvedLocation) error {
	if loc.Key == "" {
		return eris.New("geocode: cache entry without key")
	}

	loc.Input = ""

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[loc.Key] = loc

	return s.flushLocked()
}

// Entries implements CacheStore.
func (s *JSONStore) Entries() []ResolvedLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedEntries(s.entries)
}

// Len implements CacheStore.
func (s *JSONStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Path implements CacheStore.
func (s *JSONStore) Path() string {
	return s.path
}

// Close implements CacheStore. Entries are already persisted by Put.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) flushLocked() error {
	records := make(map[string]jsonRecord, len(s.entries))
	for key, loc := range s.entries {
		lat, lng := loc.Coordinate.Lat(), loc.Coordinate.Lng()
		records[key] = jsonRecord{
			Latitude:    &lat,
			Longitude:   &lng,
			DisplayName: loc.DisplayName,
			Provider:    loc.Provider,
			Confidence:  loc.Confidence,
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geocode: encode cache")
	}

	return eris.Wrap(writeFileAtomic(s.path, data), "geocode: persist cache")
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return err
	}

	return nil
}
