// Package geocode resolves free-text place queries against a
// Nominatim-compatible HTTP API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// Client implements ports.Geocoder against Nominatim's /search endpoint.
// Outbound requests are rate limited; the public instance allows one
// request per second.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
}

// New creates a Nominatim client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}
}

// nominatimResult mirrors the fields we read from the wire. Coordinates
// arrive as strings; boundingbox is [minLat, maxLat, minLng, maxLng].
type nominatimResult struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"`
}

// Geocode returns the single best match for the query, or nil when the
// query resolves to nothing.
func (c *Client) Geocode(ctx context.Context, query string) (*domain.GeocodeMatch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	return toMatch(results[0])
}

func toMatch(r nominatimResult) (*domain.GeocodeMatch, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", r.Lon, err)
	}

	match := &domain.GeocodeMatch{
		Location:    domain.GeoPoint{Lat: lat, Lng: lng},
		DisplayName: r.DisplayName,
	}

	if len(r.BoundingBox) == 4 {
		minLat, e1 := strconv.ParseFloat(r.BoundingBox[0], 64)
		maxLat, e2 := strconv.ParseFloat(r.BoundingBox[1], 64)
		minLng, e3 := strconv.ParseFloat(r.BoundingBox[2], 64)
		maxLng, e4 := strconv.ParseFloat(r.BoundingBox[3], 64)
		if e1 == nil && e2 == nil && e3 == nil && e4 == nil {
			match.Bounds = &domain.Bounds{
				MinLat: minLat, MinLng: minLng,
				MaxLat: maxLat, MaxLng: maxLng,
			}
		}
	}

	return match, nil
}
