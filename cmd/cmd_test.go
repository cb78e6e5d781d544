// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcodagnone/postalgeo/geocache"
	"github.com/jcodagnone/postalgeo/geocoding"
	"github.com/jcodagnone/postalgeo/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, calls *atomic.Int64) (*geocoding.Geocoder, *geocache.MemoryStore) {
	t.Helper()

	store := geocache.NewMemoryStore()
	provider := geocoding.ProviderFunc(func(_ context.Context, code string) (spatial.Point, error) {
		calls.Add(1)

		if code == "99999" {
			return spatial.Point{}, errors.New("no such place")
		}

		return spatial.Point{Lat: 40, Lng: -75}, nil
	})

	g, err := geocoding.New(store, provider, geocoding.DefaultConfig())
	require.NoError(t, err)

	return g, store
}

func TestGeocodeLines(t *testing.T) {
	var calls atomic.Int64

	g, _ := newTestGeocoder(t, &calls)

	var out bytes.Buffer

	in := strings.NewReader("00000\n\n  00000  \nabc\n99999\n99999\n")
	require.NoError(t, geocodeLines(context.Background(), g, in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "00000\t40.0\t-75.0", lines[0])
	assert.Equal(t, "00000\t40.0\t-75.0", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "abc\t\"postal code value is invalid"), lines[2])
	assert.Contains(t, lines[3], "no such place")
	assert.Contains(t, lines[4], "a previous geocoding error occurred")
	assert.Equal(t, int64(2), calls.Load())
}

func TestGeocodeAllKeepsOrder(t *testing.T) {
	var calls atomic.Int64

	g, _ := newTestGeocoder(t, &calls)

	codes := []string{"00000", "99999", "abc", "11111", "00000"}

	var done atomic.Int64

	results, err := geocodeAll(context.Background(), g, codes, 4, func() { done.Add(1) })
	require.NoError(t, err)
	require.Len(t, results, len(codes))
	assert.Equal(t, int64(len(codes)), done.Load())

	want := []geocoding.Status{
		geocoding.StatusOK,
		geocoding.StatusUnavailable,
		geocoding.StatusInvalid,
		geocoding.StatusOK,
		geocoding.StatusOK,
	}

	for i, r := range results {
		assert.Equal(t, want[i], r.Status, "result %d (%s)", i, codes[i])
		assert.Equal(t, codes[i], r.PostalCode)
	}

	var out bytes.Buffer
	require.NoError(t, writeCSV(&out, results))

	assert.Equal(t, `postal_code,status,lat,lng,error
00000,ok,40.0,-75.0,
99999,unavailable,,,an error occurred while geocoding postal code 99999: no such place
abc,invalid,,,"postal code value is invalid: ""abc"""
11111,ok,40.0,-75.0,
00000,ok,40.0,-75.0,
`, out.String())
}

func TestGeocodeAllCanceled(t *testing.T) {
	var calls atomic.Int64

	g, _ := newTestGeocoder(t, &calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := geocodeAll(ctx, g, []string{"00000"}, 1, func() {})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestReadCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.txt")
	require.NoError(t, os.WriteFile(path, []byte("19103\n\n 10001 \n"), 0o600))

	codes, err := readCodes(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"19103", "10001"}, codes)

	_, err = readCodes(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestShowEntries(t *testing.T) {
	var calls atomic.Int64

	g, store := newTestGeocoder(t, &calls)

	_, err := g.Geocode(context.Background(), "00000")
	require.NoError(t, err)
	_, err = g.Geocode(context.Background(), "99999")
	require.Error(t, err)

	var out bytes.Buffer
	require.NoError(t, showEntries(context.Background(), store, &out, " 00000 "))
	require.NoError(t, showEntries(context.Background(), store, &out, "12345"))

	var failed bytes.Buffer
	require.NoError(t, showEntries(context.Background(), store, &failed, "99999"))
	assert.Equal(t, 2, strings.Count(failed.String(), "\"error\""))
	assert.NotContains(t, failed.String(), "POINT")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "postalgeo__geocode__lat__00000\t\"40.0\"\texpires "), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "postalgeo__geocode__lon__00000\t\"-75.0\"\texpires "), lines[1])
	assert.Equal(t, "00000\tPOINT(-75.000000 40.000000)", lines[2])
	assert.Equal(t, "postalgeo__geocode__lat__12345\t<absent>", lines[3])
	assert.Equal(t, "postalgeo__geocode__lon__12345\t<absent>", lines[4])
}

func TestOpenStore(t *testing.T) {
	saved := *options
	t.Cleanup(func() { *options = saved })

	ctx := context.Background()

	options.Cache = cacheMemory
	store, closer, err := openStore(ctx)
	require.NoError(t, err)
	require.NoError(t, closer())
	assert.IsType(t, &geocache.MemoryStore{}, store)

	options.Cache = cacheDuckDB
	options.DbPath = filepath.Join(t.TempDir(), "db")
	store, closer, err = openStore(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "k", "v", time.Hour))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	require.NoError(t, closer())
	assert.FileExists(t, filepath.Join(options.DbPath, dbFile))

	options.Cache = "redis"
	_, _, err = openStore(ctx)
	require.Error(t, err)
}

func TestOpenGeocoderRejectsBadConfig(t *testing.T) {
	saved := *options
	t.Cleanup(func() { *options = saved })

	options.Cache = cacheMemory
	options.Provider = "nominatim"
	options.FailureTTL = 2 * options.SuccessTTL

	_, _, err := openGeocoder(context.Background())
	require.Error(t, err)

	options.FailureTTL = time.Hour
	options.Provider = "carrier_pigeon"

	_, _, err = openGeocoder(context.Background())
	assert.True(t, geocoding.IsUnknownProvider(err), "got %v", err)

	options.Provider = "nominatim"

	g, closer, err := openGeocoder(context.Background())
	require.NoError(t, err)
	require.NoError(t, closer())
	assert.NotNil(t, g)
}
