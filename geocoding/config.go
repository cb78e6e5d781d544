// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// DefaultSuccessTTL keeps resolved coordinates for a year; postal code
	// centroids rarely move.
	DefaultSuccessTTL = 365 * 24 * time.Hour

	// DefaultFailureTTL keeps failures for a day before allowing a retry.
	DefaultFailureTTL = 24 * time.Hour

	// DefaultProvider is the provider used when none is configured.
	DefaultProvider = "google_maps"
)

// Config holds the settings used to build a Geocoder and its provider.
type Config struct {
	// Provider is the registry identifier of the geocoding provider.
	Provider string

	// APIKey for providers that need one. Google Maps falls back to
	// GOOGLE_MAPS_API_KEY and then to Application Default Credentials.
	APIKey string

	// UserAgent sent to providers. Nominatim rejects anonymous clients.
	UserAgent string

	// SuccessTTL is how long resolved coordinates are cached.
	SuccessTTL time.Duration

	// FailureTTL is how long a failed lookup blocks new provider calls.
	FailureTTL time.Duration

	// HTTPTimeout bounds each provider request. Zero uses the client default.
	HTTPTimeout time.Duration

	// HTTPTrace receives dumps of provider HTTP traffic when not nil.
	HTTPTrace io.Writer

	// HTTPTraceBody includes response bodies in the trace.
	HTTPTraceBody bool
}

// DefaultConfig returns a Config with the default provider and TTLs.
func DefaultConfig() Config {
	return Config{
		Provider:   DefaultProvider,
		SuccessTTL: DefaultSuccessTTL,
		FailureTTL: DefaultFailureTTL,
	}
}

// withDefaults fills zero TTLs with their defaults.
func (c Config) withDefaults() Config {
	if c.SuccessTTL == 0 {
		c.SuccessTTL = DefaultSuccessTTL
	}

	if c.FailureTTL == 0 {
		c.FailureTTL = DefaultFailureTTL
	}

	return c
}

// Validate checks the TTLs. Failures must expire strictly before successes.
func (c Config) Validate() error {
	if c.SuccessTTL <= 0 {
		return fmt.Errorf("success ttl must be positive (got %v)", c.SuccessTTL)
	}

	if c.FailureTTL <= 0 {
		return fmt.Errorf("failure ttl must be positive (got %v)", c.FailureTTL)
	}

	if c.FailureTTL >= c.SuccessTTL {
		return errors.New("failure ttl must be shorter than success ttl")
	}

	return nil
}
