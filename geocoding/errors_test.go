// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func providerFailure(cause error) error {
	return &GeocodingError{Type: ErrorTypeProviderFailure, Message: "geocoding failed", Err: cause}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "rate limit error type", err: &GeocodingError{Type: ErrorTypeRateLimit, Message: "slow down"}, want: true},
		{name: "wrapped in provider failure", err: providerFailure(&GeocodingError{Type: ErrorTypeRateLimit, Message: "x"}), want: true},
		{name: "wrapped with fmt", err: fmt.Errorf("ctx: %w", providerFailure(&GeocodingError{Type: ErrorTypeRateLimit})), want: true},
		{name: "message contains too many requests", err: errors.New("too many requests"), want: true},
		{name: "message contains 429", err: errors.New("nominatim returned status 429"), want: true},
		{name: "other error type", err: &GeocodingError{Type: ErrorTypeNotFound, Message: "not found"}, want: false},
		{name: "postal code contains 429", err: providerFailure(&GeocodingError{Type: ErrorTypeNotFound, Message: "no results for 14290"}), want: false},
		{name: "invalid input mentions rate limit", err: &GeocodingError{Type: ErrorTypeInvalidPostalCode, Message: `postal code value is invalid: "rate limit"`}, want: false},
		{name: "previously failed 04290", err: &GeocodingError{Type: ErrorTypePreviouslyFailed, Message: "a previous geocoding error occurred while processing postal code: 04290"}, want: false},
		{name: "unrelated error", err: errors.New("some other error"), want: false},
		{name: "nil", err: nil, want: false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "quota exceeded error type", err: &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota"}, want: true},
		{name: "message contains over_query_limit", err: errors.New("google maps status: OVER_QUERY_LIMIT"), want: true},
		{name: "message contains quota exceeded", err: errors.New("quota exceeded"), want: true},
		{name: "wrapped in provider failure", err: providerFailure(&GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "x"}), want: true},
		{name: "other error type", err: &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit"}, want: false},
		{name: "typed error mentions quota exceeded", err: providerFailure(&GeocodingError{Type: ErrorTypeInvalidRequest, Message: "quota exceeded"}), want: false},
		{name: "unrelated error", err: errors.New("some other error"), want: false},
		{name: "nil", err: nil, want: false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{name: "timeout error type", err: &GeocodingError{Type: ErrorTypeTimeout, Message: "timed out"}, want: true},
		{name: "message contains timeout", err: errors.New("i/o timeout"), want: true},
		{name: "message contains deadline exceeded", err: errors.New("context deadline exceeded"), want: true},
		{name: "wrapped in provider failure", err: providerFailure(&GeocodingError{Type: ErrorTypeTimeout, Message: "x"}), want: true},
		{name: "invalid input timeout", err: &GeocodingError{Type: ErrorTypeInvalidPostalCode, Message: `postal code value is invalid: "timeout"`}, want: false},
		{name: "network error wrapping a timeout message", err: &GeocodingError{Type: ErrorTypeNetworkError, Message: "request failed", Err: errors.New("i/o timeout")}, want: false},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
		{name: "nil", err: nil, want: false},
	}, IsTimeoutError)
}

func TestCoreErrorPredicates(t *testing.T) {
	invalid := &GeocodingError{Type: ErrorTypeInvalidPostalCode, Message: "invalid"}
	unknown := &GeocodingError{Type: ErrorTypeUnknownProvider, Message: "unknown"}
	previous := &GeocodingError{Type: ErrorTypePreviouslyFailed, Message: "previous"}
	failure := providerFailure(errors.New("boom"))

	checks := map[string]func(error) bool{
		"invalid":  IsInvalidPostalCode,
		"unknown":  IsUnknownProvider,
		"previous": IsPreviouslyFailed,
		"failure":  IsProviderFailure,
	}

	errs := map[string]error{
		"invalid":  invalid,
		"unknown":  unknown,
		"previous": previous,
		"failure":  failure,
	}

	for checkName, check := range checks {
		for errName, err := range errs {
			if got, want := check(err), checkName == errName; got != want {
				t.Errorf("%s(%s) = %v, want %v", checkName, errName, got, want)
			}
		}

		if check(nil) {
			t.Errorf("%s(nil) = true, want false", checkName)
		}
	}
}

func TestGeocodingErrorMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := &GeocodingError{Type: ErrorTypeProviderFailure, Message: "geocoding 19103", Err: cause}

	if got, want := err.Error(), "geocoding 19103: connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should reach the cause")
	}

	if got := ErrorTypePreviouslyFailed.String(); got != "previously_failed" {
		t.Errorf("String() = %q", got)
	}

	if got := ErrorType(99).String(); got != "ErrorType(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		statusCode int
		wantType   ErrorType
	}{
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusForbidden, ErrorTypeQuotaExceeded},
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusGatewayTimeout, ErrorTypeTimeout},
		{http.StatusServiceUnavailable, ErrorTypeNetworkError},
		{http.StatusBadGateway, ErrorTypeNetworkError},
		{http.StatusInternalServerError, ErrorTypeUnknown},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			err := ClassifyHTTPError(tt.statusCode, "test")
			if err.Type != tt.wantType {
				t.Errorf("ClassifyHTTPError(%d).Type = %v, want %v", tt.statusCode, err.Type, tt.wantType)
			}

			if err.Message == "" {
				t.Errorf("ClassifyHTTPError(%d).Message is empty", tt.statusCode)
			}
		})
	}
}
