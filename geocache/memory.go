// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. It is safe for concurrent use
// but is not shared across processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	now     Clock
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used to compute and check expirations.
func (s *MemoryStore) WithClock(now Clock) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now

	return s
}

// Get implements Store. Expired entries are dropped on read.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}

	if !s.now().Before(e.ExpiresAt) {
		delete(s.entries, key)

		return "", false, nil
	}

	return e.Value, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{Key: key, Value: value, ExpiresAt: s.now().Add(ttl)}

	return nil
}

// Entries returns the live entries whose key starts with prefix, sorted by key.
func (s *MemoryStore) Entries(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]Entry, 0, len(s.entries))

	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && now.Before(e.ExpiresAt) {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	return out, nil
}

// Purge removes expired entries and reports how many were removed.
func (s *MemoryStore) Purge(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	var n int64

	for k, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, k)
			n++
		}
	}

	return n, nil
}
