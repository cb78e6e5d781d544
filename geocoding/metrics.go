// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import "sync/atomic"

// Metrics tracks the outcome of Geocoder calls.
type Metrics struct {
	Invalid          atomic.Int64
	CacheHits        atomic.Int64
	NegativeHits     atomic.Int64
	Misses           atomic.Int64
	ProviderCalls    atomic.Int64
	ProviderFailures atomic.Int64
	CacheReadErrors  atomic.Int64
	CacheWriteErrors atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Invalid          int64 `json:"invalid"`
	CacheHits        int64 `json:"cache_hits"`
	NegativeHits     int64 `json:"negative_hits"`
	Misses           int64 `json:"misses"`
	ProviderCalls    int64 `json:"provider_calls"`
	ProviderFailures int64 `json:"provider_failures"`
	CacheReadErrors  int64 `json:"cache_read_errors"`
	CacheWriteErrors int64 `json:"cache_write_errors"`
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Invalid:          m.Invalid.Load(),
		CacheHits:        m.CacheHits.Load(),
		NegativeHits:     m.NegativeHits.Load(),
		Misses:           m.Misses.Load(),
		ProviderCalls:    m.ProviderCalls.Load(),
		ProviderFailures: m.ProviderFailures.Load(),
		CacheReadErrors:  m.CacheReadErrors.Load(),
		CacheWriteErrors: m.CacheWriteErrors.Load(),
	}
}
