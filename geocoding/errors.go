// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError is the error type returned by the Geocoder and its providers.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies a GeocodingError.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidPostalCode the input failed validation.
	ErrorTypeInvalidPostalCode
	// ErrorTypeUnknownProvider the configured provider is not registered.
	ErrorTypeUnknownProvider
	// ErrorTypePreviouslyFailed a recent attempt for the code failed and is still cached.
	ErrorTypePreviouslyFailed
	// ErrorTypeProviderFailure the provider call failed.
	ErrorTypeProviderFailure
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exceeded or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound the provider has no result for the code.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the provider rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError network or upstream availability error.
	ErrorTypeNetworkError
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:           "unknown",
	ErrorTypeInvalidPostalCode: "invalid_postal_code",
	ErrorTypeUnknownProvider:   "unknown_provider",
	ErrorTypePreviouslyFailed:  "previously_failed",
	ErrorTypeProviderFailure:   "provider_failure",
	ErrorTypeRateLimit:         "rate_limit",
	ErrorTypeQuotaExceeded:     "quota_exceeded",
	ErrorTypeTimeout:           "timeout",
	ErrorTypeNotFound:          "not_found",
	ErrorTypeInvalidRequest:    "invalid_request",
	ErrorTypeNetworkError:      "network_error",
}

func (t ErrorType) String() string {
	if s, ok := errorTypeNames[t]; ok {
		return s
	}

	return fmt.Sprintf("ErrorType(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// hasType reports whether any GeocodingError in err's chain has type t.
func hasType(err error, t ErrorType) bool {
	for err != nil {
		var geoErr *GeocodingError
		if !errors.As(err, &geoErr) {
			return false
		}

		if geoErr.Type == t {
			return true
		}

		err = geoErr.Err
	}

	return false
}

// IsInvalidPostalCode reports whether err was caused by a malformed postal code.
func IsInvalidPostalCode(err error) bool {
	return hasType(err, ErrorTypeInvalidPostalCode)
}

// IsUnknownProvider reports whether err was caused by an unregistered provider.
func IsUnknownProvider(err error) bool {
	return hasType(err, ErrorTypeUnknownProvider)
}

// IsPreviouslyFailed reports whether err is a cached failure.
func IsPreviouslyFailed(err error) bool {
	return hasType(err, ErrorTypePreviouslyFailed)
}

// IsProviderFailure reports whether err came from a failed provider call.
func IsProviderFailure(err error) bool {
	return hasType(err, ErrorTypeProviderFailure)
}

// IsNotFoundError reports whether the provider had no result.
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// matches reports whether err has type t. Errors outside this package, such
// as transport errors, fall back to looking for one of needles in the
// lowercased message; typed errors never do, since their messages carry
// postal codes.
func matches(err error, t ErrorType, needles ...string) bool {
	if err == nil {
		return false
	}

	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return hasType(err, t)
	}

	errStr := strings.ToLower(err.Error())
	for _, needle := range needles {
		if strings.Contains(errStr, needle) {
			return true
		}
	}

	return false
}

// IsRateLimitError reports whether err is a rate limit error.
func IsRateLimitError(err error) bool {
	return matches(err, ErrorTypeRateLimit, "rate limit", "too many requests", "429")
}

// IsQuotaExceededError reports whether err is a quota error.
// Google Maps reports OVER_QUERY_LIMIT in the body status.
func IsQuotaExceededError(err error) bool {
	return matches(err, ErrorTypeQuotaExceeded, "over_query_limit", "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	return matches(err, ErrorTypeTimeout, "timeout", "deadline exceeded")
}

// ClassifyHTTPError maps a provider HTTP status code to a GeocodingError.
func ClassifyHTTPError(statusCode int, provider string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests:
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: provider + ": rate limit reached",
		}
	case http.StatusForbidden:
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: provider + ": quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: provider + ": invalid request",
		}
	case http.StatusNotFound:
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: provider + ": not found",
		}
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return &GeocodingError{
			Type:    ErrorTypeTimeout,
			Message: fmt.Sprintf("%s: upstream timeout (status %d)", provider, statusCode),
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("%s: service unavailable (status %d)", provider, statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("%s: HTTP error %d", provider, statusCode),
		}
	}
}
