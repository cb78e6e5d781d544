// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/jcodagnone/postalgeo/spatial"
	"github.com/jcodagnone/postalgeo/utils/httputils"
)

// Provider resolves a postal code against an external geocoding service.
// Timeouts are the provider's concern.
type Provider interface {
	Geocode(ctx context.Context, postalCode string) (spatial.Point, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, postalCode string) (spatial.Point, error)

// Geocode calls f(ctx, postalCode).
func (f ProviderFunc) Geocode(ctx context.Context, postalCode string) (spatial.Point, error) {
	return f(ctx, postalCode)
}

// ProviderFactory builds a provider from configuration.
type ProviderFactory func(cfg Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ProviderFactory)
)

// RegisterProvider makes a provider available under name. Registering the
// same name twice replaces the previous factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[name] = factory
}

// Providers lists the registered provider names, sorted.
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg Config) (Provider, error) {
	name := cfg.Provider
	if name == "" {
		name = DefaultProvider
	}

	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, &GeocodingError{
			Type:    ErrorTypeUnknownProvider,
			Message: fmt.Sprintf("unknown postal code geocode provider: %q (known: %v)", name, Providers()),
		}
	}

	return factory(cfg)
}

func newHTTPClient(cfg Config) *http.Client {
	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}

	return httputils.NewClient(httputils.ClientOptions{
		Timeout:   cfg.HTTPTimeout,
		Headers:   headers,
		Trace:     cfg.HTTPTrace,
		TraceBody: cfg.HTTPTraceBody,
	})
}

// classifyTransportError wraps a failed HTTP round trip.
func classifyTransportError(err error, provider string) *GeocodingError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &GeocodingError{Type: ErrorTypeTimeout, Message: provider + ": request timed out", Err: err}
	}

	return &GeocodingError{Type: ErrorTypeNetworkError, Message: provider + ": request failed", Err: err}
}
