// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/postalgeo/geocache"
	"github.com/jcodagnone/postalgeo/postalcode"
	"github.com/jcodagnone/postalgeo/spatial"
	"golang.org/x/sync/singleflight"
)

// ErrorSentinel is stored under both axis keys of a postal code whose last
// lookup failed. It can't be mistaken for a coordinate: components are always
// stored as decimal numbers.
const ErrorSentinel = "error"

const keyPrefix = "postalgeo__geocode__"

// CacheKeys returns the latitude and longitude cache keys of a postal code.
func CacheKeys(postalCode string) (keyLat, keyLon string) {
	return cacheKey("lat", postalCode), cacheKey("lon", postalCode)
}

func cacheKey(axis, postalCode string) string {
	return keyPrefix + axis + "__" + postalCode
}

// Geocoder resolves postal codes through a Provider and remembers both
// successes and failures in a geocache.Store.
//
// The latitude and longitude of a code live under separate keys. A sentinel
// on either key short-circuits to a cached failure; a pair where only one
// side is present or parseable is treated as a miss.
type Geocoder struct {
	store     geocache.Store
	provider  Provider
	validator postalcode.Validator
	cfg       Config
	inflight  singleflight.Group
	metrics   Metrics
}

// New builds a Geocoder around an already constructed provider.
func New(store geocache.Store, provider Provider, cfg Config) (*Geocoder, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Geocoder{
		store:     store,
		provider:  provider,
		validator: postalcode.US,
		cfg:       cfg,
	}, nil
}

// Open resolves cfg.Provider through the provider registry and builds a
// Geocoder. Unknown providers fail here, before the cache is touched.
func Open(store geocache.Store, cfg Config) (*Geocoder, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}

	return New(store, provider, cfg)
}

// WithValidator replaces the postal code validator (US ZIP by default).
func (g *Geocoder) WithValidator(v postalcode.Validator) *Geocoder {
	g.validator = v

	return g
}

// Metrics returns a snapshot of the call counters.
func (g *Geocoder) Metrics() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// Geocode resolves postalCode to a point. Errors are *GeocodingError values;
// use IsInvalidPostalCode, IsPreviouslyFailed and IsProviderFailure to tell
// them apart, or call Resolve to branch on a Status instead.
func (g *Geocoder) Geocode(ctx context.Context, postalCode string) (spatial.Point, error) {
	r := g.Resolve(ctx, postalCode)

	return r.Point, r.Err
}

// Resolve resolves postalCode and reports the outcome as a Result.
func (g *Geocoder) Resolve(ctx context.Context, postalCode string) Result {
	code := postalcode.Normalize(postalCode)
	if !g.validator.Validate(code) {
		g.metrics.Invalid.Add(1)

		return Result{
			PostalCode: code,
			Status:     StatusInvalid,
			Err: &GeocodingError{
				Type:    ErrorTypeInvalidPostalCode,
				Message: fmt.Sprintf("postal code value is invalid: %q", postalCode),
			},
		}
	}

	keyLat, keyLon := CacheKeys(code)

	if r, ok := g.lookup(ctx, code, keyLat, keyLon); ok {
		if r.OK() {
			g.metrics.CacheHits.Add(1)
		} else {
			g.metrics.NegativeHits.Add(1)
		}

		return r
	}

	g.metrics.Misses.Add(1)

	for {
		// Concurrent misses for the same code share one provider call. The
		// cache is read again inside the flight so a caller arriving just after
		// a flight finished sees its result instead of starting another one.
		v, _, _ := g.inflight.Do(code, func() (any, error) {
			if r, ok := g.lookup(ctx, code, keyLat, keyLon); ok {
				return flight{Result: r}, nil
			}

			return g.dispatch(ctx, code, keyLat, keyLon), nil
		})

		f := v.(flight)

		// A flight cut short by its leader's context says nothing about the
		// postal code; callers that are still live try again.
		if !f.aborted || ctx.Err() != nil {
			return f.Result
		}
	}
}

// flight is the shared outcome of one provider dispatch.
type flight struct {
	Result

	// aborted is set when the leader's context ended before the provider
	// answered. Nothing was cached.
	aborted bool
}

// lookup reads both axis keys. ok is false on a miss.
func (g *Geocoder) lookup(ctx context.Context, code, keyLat, keyLon string) (Result, bool) {
	lat, latOK := g.read(ctx, keyLat)
	lon, lonOK := g.read(ctx, keyLon)

	if (latOK && lat == ErrorSentinel) || (lonOK && lon == ErrorSentinel) {
		return Result{
			PostalCode: code,
			Status:     StatusCachedFailure,
			FromCache:  true,
			Err: &GeocodingError{
				Type:    ErrorTypePreviouslyFailed,
				Message: "a previous geocoding error occurred while processing postal code: " + code,
			},
		}, true
	}

	if !latOK || !lonOK {
		return Result{}, false
	}

	p, err := spatial.ParsePoint(lat, lon)
	if err != nil {
		log.Printf("⚠️  Ignoring corrupt cache entries for %s (lat=%q lon=%q): %v", code, lat, lon, err)

		return Result{}, false
	}

	return Result{PostalCode: code, Status: StatusOK, Point: p, FromCache: true}, true
}

// read returns the value at key. Store errors are logged and read as absent.
func (g *Geocoder) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.metrics.CacheReadErrors.Add(1)
		log.Printf("⚠️  Reading cache key %s: %v", key, err)

		return "", false
	}

	return v, ok
}

// dispatch calls the provider and caches the outcome. Failures caused by ctx
// ending are returned uncached.
func (g *Geocoder) dispatch(ctx context.Context, code, keyLat, keyLon string) flight {
	if ctx.Err() != nil {
		return g.interrupted(ctx, code)
	}

	g.metrics.ProviderCalls.Add(1)

	p, err := g.provider.Geocode(ctx, code)
	if err == nil {
		err = p.Validate()
	}

	if err != nil {
		if ctx.Err() != nil {
			return g.interrupted(ctx, code)
		}

		g.metrics.ProviderFailures.Add(1)
		g.write(ctx, keyLat, ErrorSentinel, g.cfg.FailureTTL)
		g.write(ctx, keyLon, ErrorSentinel, g.cfg.FailureTTL)

		return flight{Result: Result{
			PostalCode: code,
			Status:     StatusUnavailable,
			Err: &GeocodingError{
				Type:    ErrorTypeProviderFailure,
				Message: "an error occurred while geocoding postal code " + code,
				Err:     err,
			},
		}}
	}

	g.write(ctx, keyLat, spatial.FormatComponent(p.Lat), g.cfg.SuccessTTL)
	g.write(ctx, keyLon, spatial.FormatComponent(p.Lng), g.cfg.SuccessTTL)

	return flight{Result: Result{PostalCode: code, Status: StatusOK, Point: p}}
}

func (g *Geocoder) interrupted(ctx context.Context, code string) flight {
	return flight{
		aborted: true,
		Result: Result{
			PostalCode: code,
			Status:     StatusUnavailable,
			Err: &GeocodingError{
				Type:    ErrorTypeProviderFailure,
				Message: "geocoding postal code " + code + " was interrupted",
				Err:     context.Cause(ctx),
			},
		},
	}
}

// write stores a value. Failures are logged; the caller's result stands.
// A point that arrived is worth keeping even if the caller has gone away.
func (g *Geocoder) write(ctx context.Context, key, value string, ttl time.Duration) {
	if err := g.store.Set(context.WithoutCancel(ctx), key, value, ttl); err != nil {
		g.metrics.CacheWriteErrors.Add(1)
		log.Printf("⚠️  Caching %s=%s: %v", key, value, err)
	}
}
