// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/jcodagnone/postalgeo/spatial"
)

const (
	googleMapsName    = "google_maps"
	googleMapsBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
)

func init() {
	RegisterProvider(googleMapsName, newGoogleMapsProviderFromConfig)
}

// GoogleMapsProvider uses the Google Maps Geocoding API restricted to US
// postal codes.
type GoogleMapsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsProvider creates a new Google Maps provider.
func NewGoogleMapsProvider(apiKey string, httpClient *http.Client) *GoogleMapsProvider {
	return &GoogleMapsProvider{
		apiKey:     apiKey,
		baseURL:    googleMapsBaseURL,
		httpClient: httpClient,
	}
}

// WithBaseURL points the provider at another endpoint.
func (g *GoogleMapsProvider) WithBaseURL(baseURL string) *GoogleMapsProvider {
	g.baseURL = baseURL

	return g
}

func newGoogleMapsProviderFromConfig(cfg Config) (Provider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	}

	if apiKey == "" {
		log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

		var err error

		apiKey, err = APIKeyFromADC(context.Background())
		if err != nil {
			return nil, fmt.Errorf("google maps api key: %w", err)
		}

		log.Println("✅ Successfully retrieved Google Maps API Key via ADC")
	}

	return NewGoogleMapsProvider(apiKey, newHTTPClient(cfg)), nil
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, ...
	ErrorMessage string `json:"error_message"`
}

// Geocode implements Provider.
func (g *GoogleMapsProvider) Geocode(ctx context.Context, postalCode string) (spatial.Point, error) {
	params := url.Values{}
	params.Set("components", "postal_code:"+postalCode+"|country:US")
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return spatial.Point{}, classifyTransportError(err, googleMapsName)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return spatial.Point{}, ClassifyHTTPError(resp.StatusCode, googleMapsName)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return spatial.Point{}, fmt.Errorf("decoding response: %w", err)
	}

	if gmResp.Status != "OK" {
		return spatial.Point{}, classifyGoogleStatus(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return spatial.Point{}, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "no results found for postal code: " + postalCode,
		}
	}

	loc := gmResp.Results[0].Geometry.Location

	return spatial.NewPoint(loc.Lat, loc.Lng)
}

func classifyGoogleStatus(status, message string) *GeocodingError {
	t := ErrorTypeUnknown

	switch status {
	case "ZERO_RESULTS":
		t = ErrorTypeNotFound
	case "OVER_QUERY_LIMIT":
		t = ErrorTypeRateLimit
	case "OVER_DAILY_LIMIT":
		t = ErrorTypeQuotaExceeded
	case "REQUEST_DENIED", "INVALID_REQUEST":
		t = ErrorTypeInvalidRequest
	}

	msg := "google maps status: " + status
	if message != "" {
		msg += " (" + message + ")"
	}

	return &GeocodingError{Type: t, Message: msg}
}
