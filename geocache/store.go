// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocache holds the key/value stores used to remember geocoding
// outcomes. Every entry carries its own expiration; an expired entry is
// indistinguishable from one that was never written.
package geocache

import (
	"context"
	"time"
)

// Store is a string key/value store with per-key expiration. Each call is
// atomic for its key; there is no multi-key transaction.
type Store interface {
	// Get returns the value stored at key. ok is false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value at key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Entry is a stored value together with its expiration, used for diagnostics.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Clock returns the current time. Stores take one so tests can move time.
type Clock func() time.Time
