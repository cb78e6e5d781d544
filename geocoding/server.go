// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/postalgeo/spatial"
)

// h3Resolution is the resolution of the H3 cell returned with each point,
// roughly 5 km² per cell.
const h3Resolution = 7

// Server exposes a Geocoder over HTTP.
type Server struct {
	geocoder *Geocoder
}

// NewServer creates a server for geocoder.
func NewServer(geocoder *Geocoder) *Server {
	return &Server{geocoder: geocoder}
}

// GeocodeResponse is the body of a successful geocode request.
type GeocodeResponse struct {
	PostalCode string        `json:"postal_code"`
	Point      spatial.Point `json:"point"`
	H3Cell     string        `json:"h3_cell,omitempty"`
	Cached     bool          `json:"cached"`

	// DistanceM is the great-circle distance in meters to the point given in
	// the near=lat,lng query parameter.
	DistanceM *float64 `json:"distance_m,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	PostalCode string `json:"postal_code,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// Handler returns the gin engine with all routes registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.Default()
	s.Register(r)

	return r
}

// Register adds the API routes to r.
func (s *Server) Register(r gin.IRoutes) {
	r.GET("/api/geocode/:postal_code", s.geocode)
	r.GET("/api/stats", s.stats)
}

// Run serves the API on addr until it fails.
func (s *Server) Run(addr string) error {
	return s.Handler().Run(addr)
}

func (s *Server) geocode(ctx *gin.Context) {
	var near *spatial.Point

	if q := ctx.Query("near"); q != "" {
		lat, lng, _ := strings.Cut(q, ",")

		p, err := spatial.ParsePoint(lat, lng)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{
				PostalCode: ctx.Param("postal_code"),
				Status:     StatusInvalid.String(),
				Error:      "near must be lat,lng: " + err.Error(),
			})

			return
		}

		near = &p
	}

	result := s.geocoder.Resolve(ctx.Request.Context(), ctx.Param("postal_code"))

	if !result.OK() {
		ctx.JSON(statusCode(result), ErrorResponse{
			PostalCode: result.PostalCode,
			Status:     result.Status.String(),
			Error:      result.Err.Error(),
		})

		return
	}

	resp := GeocodeResponse{
		PostalCode: result.PostalCode,
		Point:      result.Point,
		Cached:     result.FromCache,
	}

	if cell, err := result.Point.Cell(h3Resolution); err == nil {
		resp.H3Cell = cell.String()
	}

	if near != nil {
		d := result.Point.HaversineDistance(*near)
		resp.DistanceM = &d
	}

	ctx.JSON(http.StatusOK, resp)
}

func (s *Server) stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.geocoder.Metrics())
}

func statusCode(result Result) int {
	switch result.Status {
	case StatusOK:
		return http.StatusOK
	case StatusInvalid:
		return http.StatusBadRequest
	case StatusCachedFailure:
		return http.StatusNotFound
	case StatusUnavailable:
		if IsRateLimitError(result.Err) || IsQuotaExceededError(result.Err) {
			return http.StatusServiceUnavailable
		}

		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
