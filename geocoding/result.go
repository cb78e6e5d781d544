// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import "github.com/jcodagnone/postalgeo/spatial"

// Status is the kind of outcome of a Resolve call.
type Status int

const (
	// StatusOK the point was resolved, from cache or from the provider.
	StatusOK Status = iota
	// StatusCachedFailure a recent lookup failed and the failure is still cached.
	StatusCachedFailure
	// StatusInvalid the postal code failed validation.
	StatusInvalid
	// StatusUnavailable the provider could not resolve the code.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCachedFailure:
		return "cached_failure"
	case StatusInvalid:
		return "invalid"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of resolving one postal code. Err is nil only when
// Status is StatusOK.
type Result struct {
	PostalCode string
	Status     Status
	Point      spatial.Point
	// FromCache is true when the outcome was read from the cache.
	FromCache bool
	Err       error
}

// OK reports whether the point was resolved.
func (r Result) OK() bool {
	return r.Status == StatusOK
}
