// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/postalgeo/geocache"
	"github.com/jcodagnone/postalgeo/geocoding"
)

const (
	cacheDuckDB = "duckdb"
	cacheMemory = "memory"
	dbFile      = "postalgeo.duckdb"
)

// Options configuration shared by every command.
type Options struct {
	geocoding.Config

	// Cache selects the cache store implementation
	Cache string

	// DbPath is the directory of the DuckDB cache
	DbPath string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

var options = &Options{Config: geocoding.DefaultConfig()}

// cacheStore is implemented by both geocache stores.
type cacheStore interface {
	geocache.Store
	Entries(ctx context.Context, prefix string) ([]geocache.Entry, error)
	Purge(ctx context.Context) (int64, error)
}

// openStore opens the configured cache. The returned closer releases it.
func openStore(ctx context.Context) (cacheStore, func() error, error) {
	switch options.Cache {
	case cacheMemory:
		return geocache.NewMemoryStore(), func() error { return nil }, nil
	case cacheDuckDB:
		if err := os.MkdirAll(options.DbPath, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating db directory: %w", err)
		}

		db, err := sql.Open("duckdb", filepath.Join(options.DbPath, dbFile))
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}

		store := geocache.NewDuckDBStore(db)
		if err := store.CreateSchema(ctx); err != nil {
			db.Close()

			return nil, nil, err
		}

		return store, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache store %q (want %s or %s)", options.Cache, cacheDuckDB, cacheMemory)
	}
}

// openGeocoder opens the cache and builds the configured geocoder.
func openGeocoder(ctx context.Context) (*geocoding.Geocoder, func() error, error) {
	cfg := options.Config
	if cfg.UserAgent == "" {
		cfg.UserAgent = fmt.Sprintf("postalgeo/%s (+https://github.com/jcodagnone/postalgeo)", Version)
	}

	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		cfg.HTTPTrace = os.Stderr
		cfg.HTTPTraceBody = options.EnableHTTPBodyTrace
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store, closer, err := openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	g, err := geocoding.Open(store, cfg)
	if err != nil {
		_ = closer()

		return nil, nil, err
	}

	return g, closer, nil
}
