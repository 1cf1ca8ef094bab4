// Package routing plans pedestrian routes against an OSRM-compatible
// HTTP API.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
)

// Client implements ports.RoutePlanner against OSRM's route service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates an OSRM client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// osrmResponse mirrors the fields we read from the wire. Geometry
// coordinates arrive in lng,lat order.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// WalkingRoute computes a foot route between two points. The polyline is
// normalized to lat/lng order. Returns ports.ErrNoRoute when OSRM cannot
// connect the points.
func (c *Client) WalkingRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.WalkingRoute, error) {
	// OSRM takes coordinates as lng,lat pairs in the path
	u := fmt.Sprintf("%s/route/v1/foot/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("osrm decode: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, ports.ErrNoRoute
	}

	best := body.Routes[0]
	coords := make([]domain.GeoPoint, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		coords = append(coords, domain.GeoPoint{Lat: pair[1], Lng: pair[0]})
	}

	return &domain.WalkingRoute{
		From:            from,
		To:              to,
		Path:            domain.GeoLineString{Coordinates: coords},
		DistanceMeters:  int(math.Round(best.Distance)),
		DurationSeconds: int(math.Round(best.Duration)),
	}, nil
}
