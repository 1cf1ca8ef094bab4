package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

const geocodeErrorTTL = 4 * time.Second

// GeocodeService resolves free-text place queries for the map search box.
// Network failures and empty results never surface as errors to the map
// core; they become a transient, auto-expiring message and the search state
// resets so no stale partial result lingers.
type GeocodeService struct {
	geocoder ports.Geocoder
	message  *transientMessage
}

// NewGeocodeService creates a GeocodeService.
func NewGeocodeService(geocoder ports.Geocoder, clk clock.Clock) *GeocodeService {
	return &GeocodeService{
		geocoder: geocoder,
		message:  newTransientMessage(clk, geocodeErrorTTL),
	}
}

// Search returns the best match for the query, or nil when the query
// resolved to nothing. The returned error is for logging only; user-facing
// feedback goes through Message.
func (s *GeocodeService) Search(ctx context.Context, query string) (*domain.GeocodeMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}

	match, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		slog.Warn("geocode failed", "query", query, "error", err)
		s.message.set("Place search is unavailable right now")
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if match == nil {
		metrics.GeocodeRequests.WithLabelValues("no_match").Inc()
		s.message.set(fmt.Sprintf("No results for %q", query))
		return nil, nil
	}

	metrics.GeocodeRequests.WithLabelValues("ok").Inc()
	s.message.clear()
	return match, nil
}

// Message returns the current transient error message, or "".
func (s *GeocodeService) Message() string {
	return s.message.get()
}
