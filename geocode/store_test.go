// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/treepickup/pickup/spatial"
)

var cmpCoordinate = cmp.Comparer(func(a, b spatial.Coordinate) bool { return a == b })

func sampleLocations() []ResolvedLocation {
	return []ResolvedLocation{
		{Key: "1400 jfk blvd", Coordinate: spatial.MustCoordinate(39.9526, -75.1652), DisplayName: "City Hall", Provider: "osm-nominatim", Confidence: ConfidenceHigh},
		{Key: "350 5th ave", Coordinate: spatial.MustCoordinate(40.7484, -73.9857), DisplayName: "Empire State Building"},
	}
}

func TestJSONStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	store := NewJSONStore(path, zap.NewNop())
	require.NoError(t, store.Load(ctx))
	assert.Zero(t, store.Len())

	for _, loc := range sampleLocations() {
		loc.Input = "ignored"
		require.NoError(t, store.Put(ctx, loc))
	}

	reopened := NewJSONStore(path, zap.NewNop())
	require.NoError(t, reopened.Load(ctx))

	want := sampleLocations()
	if diff := cmp.Diff([]ResolvedLocation{want[1], want[0]}, reopened.Entries(), cmpCoordinate); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	got, ok := reopened.Get("1400 jfk blvd")
	require.True(t, ok)
	assert.Equal(t, "City Hall", got.DisplayName)

	// No temporary files are left behind.
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestJSONStore_FileFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	store := NewJSONStore(path, zap.NewNop())
	require.NoError(t, store.Put(ctx, sampleLocations()[0]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"1400 jfk blvd": {
			"latitude": 39.9526,
			"longitude": -75.1652,
			"display_name": "City Hall",
			"provider": "osm-nominatim",
			"confidence": "high"
		}
	}`, string(data))
}

func TestJSONStore_TolerantLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		want    int
		warn    bool
	}{
		{"malformed json", `{"broken":`, 0, true},
		{"not an object", `[1, 2, 3]`, 0, true},
		{"legacy lat lng keys", `{"12 Oak  Ave": {"lat": 10, "lng": 20, "display_name": "Oak"}}`, 1, false},
		{"invalid entry skipped", `{"a": {"latitude": 95, "longitude": 0}, "b": {"latitude": 1, "longitude": 2}}`, 1, true},
		{"entry without coordinates skipped", `{"a": {"display_name": "x"}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			core, logs := observer.New(zap.WarnLevel)
			store := NewJSONStore(path, zap.New(core))
			require.NoError(t, store.Load(ctx))
			assert.Equal(t, tt.want, store.Len())
			assert.Equal(t, tt.warn, logs.Len() > 0)
		})
	}

	t.Run("legacy keys are normalized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"12 Oak  Ave": {"lat": 10, "lng": 20}}`), 0o600))

		store := NewJSONStore(path, zap.NewNop())
		require.NoError(t, store.Load(ctx))

		loc, ok := store.Get("12 oak ave")
		require.True(t, ok)
		assert.Equal(t, spatial.MustCoordinate(10, 20), loc.Coordinate)
	})

	t.Run("missing file", func(t *testing.T) {
		store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
		require.NoError(t, store.Load(ctx))
		assert.Zero(t, store.Len())
	})
}

func TestJSONStore_CollidingKeys(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		key     string
		wantLat float64
	}{
		{
			name:    "normalized key wins",
			content: `{"1 Main St": {"latitude": 10, "longitude": 0}, "1 main st": {"latitude": 20, "longitude": 0}, "1 MAIN  ST": {"latitude": 30, "longitude": 0}}`,
			key:     "1 main st",
			wantLat: 20,
		},
		{
			name:    "first in sorted order wins",
			content: `{"Oak  Ave": {"latitude": 1, "longitude": 0}, "OAK AVE": {"latitude": 2, "longitude": 0}}`,
			key:     "oak ave",
			wantLat: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			collisions := strings.Count(tt.content, "latitude") - 1

			for range 50 {
				core, logs := observer.New(zap.WarnLevel)
				store := NewJSONStore(path, zap.New(core))
				require.NoError(t, store.Load(ctx))

				assert.Equal(t, 1, store.Len())

				got, ok := store.Get(tt.key)
				require.True(t, ok)
				require.InDelta(t, tt.wantLat, got.Coordinate.Lat(), 0)
				assert.Equal(t, collisions, logs.FilterMessage("duplicate geocode cache entry ignored").Len())
			}
		})
	}
}

func TestJSONStore_PutWithoutKey(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "cache.json"), zap.NewNop())
	require.Error(t, store.Put(context.Background(), ResolvedLocation{}))
}

func setupTestStore(t *testing.T) *DuckDBStore {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)

	store := NewDuckDBStore(db, ":memory:", zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Load(context.Background()))

	return store
}

func TestDuckDBStore(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	for _, loc := range sampleLocations() {
		require.NoError(t, store.Put(ctx, loc))
	}

	// Upsert keeps a single row per key.
	updated := sampleLocations()[0]
	updated.DisplayName = "Philadelphia City Hall"
	require.NoError(t, store.Put(ctx, updated))

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT count(*) FROM geocode_cache`).Scan(&rows))
	assert.Equal(t, 2, rows)

	// Reload from the table, not the in-memory map.
	require.NoError(t, store.Load(ctx))
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get("1400 jfk blvd")
	require.True(t, ok)
	assert.Equal(t, "Philadelphia City Hall", got.DisplayName)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
	assert.Equal(t, spatial.MustCoordinate(39.9526, -75.1652), got.Coordinate)

	counts, err := store.NeighbourhoodCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 2)
	assert.Equal(t, 1, counts[CellString(got.Coordinate, CoarseCellResolution)])
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	src := NewJSONStore(filepath.Join(t.TempDir(), "cache.json"), zap.NewNop())
	for _, loc := range sampleLocations() {
		require.NoError(t, src.Put(ctx, loc))
	}

	dst := setupTestStore(t)

	n, err := Migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	if diff := cmp.Diff(src.Entries(), dst.Entries(), cmpCoordinate); diff != "" {
		t.Errorf("migrated entries mismatch (-src +dst):\n%s", diff)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	jsonStore, err := OpenCache(ctx, filepath.Join(dir, "cache.json"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, jsonStore)

	dbStore, err := OpenCache(ctx, filepath.Join(dir, "cache.duckdb"), zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &DuckDBStore{}, dbStore)
	require.NoError(t, dbStore.Close())

	assert.True(t, IsDuckDBPath("x.DB"))
	assert.False(t, IsDuckDBPath("x.json"))
}

func TestCell(t *testing.T) {
	c := spatial.MustCoordinate(39.9526, -75.1652)

	fine, err := Cell(c, FineCellResolution)
	require.NoError(t, err)
	assert.Equal(t, FineCellResolution, fine.Resolution())

	_, err = Cell(c, 99)
	require.Error(t, err)

	assert.Len(t, CellString(c, CoarseCellResolution), 15)

	// Sanity check that the json tags of ResolvedLocation are stable.
	data, err := json.Marshal(ResolvedLocation{Key: "k", Coordinate: c})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"k","coordinate":{"lat":39.9526,"lng":-75.1652}}`, string(data))
}
