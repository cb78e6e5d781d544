// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jcodagnone/postalgeo/spatial"
)

const (
	nominatimName    = "nominatim"
	nominatimBaseURL = "https://nominatim.openstreetmap.org/search"
)

func init() {
	RegisterProvider(nominatimName, newNominatimProviderFromConfig)
}

// NominatimProvider uses the OpenStreetMap Nominatim search API. The public
// instance requires an identifying User-Agent and allows one request per second.
type NominatimProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimProvider creates a new Nominatim provider.
func NewNominatimProvider(httpClient *http.Client) *NominatimProvider {
	return &NominatimProvider{baseURL: nominatimBaseURL, httpClient: httpClient}
}

// WithBaseURL points the provider at another Nominatim instance.
func (n *NominatimProvider) WithBaseURL(baseURL string) *NominatimProvider {
	n.baseURL = baseURL

	return n
}

func newNominatimProviderFromConfig(cfg Config) (Provider, error) {
	if cfg.UserAgent == "" {
		return nil, errors.New("nominatim requires a user agent")
	}

	return NewNominatimProvider(newHTTPClient(cfg)), nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode implements Provider.
func (n *NominatimProvider) Geocode(ctx context.Context, postalCode string) (spatial.Point, error) {
	params := url.Values{}
	params.Set("postalcode", postalCode)
	params.Set("countrycodes", "us")
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return spatial.Point{}, classifyTransportError(err, nominatimName)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return spatial.Point{}, ClassifyHTTPError(resp.StatusCode, nominatimName)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return spatial.Point{}, fmt.Errorf("decoding response: %w", err)
	}

	if len(places) == 0 {
		return spatial.Point{}, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "no results found for postal code: " + postalCode,
		}
	}

	return spatial.ParsePoint(places[0].Lat, places[0].Lon)
}
