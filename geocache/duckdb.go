// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DuckDBStore persists entries in a DuckDB table so that separate runs of the
// CLI and the HTTP server share the same cache.
type DuckDBStore struct {
	db  *sql.DB
	now Clock
}

// NewDuckDBStore wraps an open DuckDB connection. Call CreateSchema before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db, now: time.Now}
}

// WithClock replaces the clock used to compute and check expirations.
func (s *DuckDBStore) WithClock(now Clock) *DuckDBStore {
	s.now = now

	return s
}

// CreateSchema creates the geocode_cache table.
func (s *DuckDBStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS geocode_cache (
			key VARCHAR PRIMARY KEY,
			value VARCHAR NOT NULL,
			expires_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating geocode_cache table: %w", err)
	}

	return nil
}

// Get implements Store.
func (s *DuckDBStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM geocode_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().UTC(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("reading cache key %s: %w", key, err)
	}

	return value, true, nil
}

// Set implements Store.
func (s *DuckDBStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO geocode_cache (key, value, expires_at) VALUES (?, ?, ?)`,
		key, value, s.now().Add(ttl).UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}

	return nil
}

// Entries returns the live entries whose key starts with prefix, sorted by key.
func (s *DuckDBStore) Entries(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, expires_at
		FROM geocode_cache
		WHERE starts_with(key, ?) AND expires_at > ?
		ORDER BY key
	`, prefix, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Purge deletes expired rows and reports how many were removed.
func (s *DuckDBStore) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging expired entries: %w", err)
	}

	return result.RowsAffected()
}
