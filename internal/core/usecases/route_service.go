package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

const routeErrorTTL = 4 * time.Second

// routeNavKeys mirror an active walking route into the navigation state so
// a deep link can restore it.
var routeNavKeys = []string{navRoute, navFromLat, navFromLng, navToLat, navToLng}

// RouteService computes and owns the session's walking route overlay.
// The route belongs to the requester until explicitly cleared; Clear is
// idempotent.
type RouteService struct {
	planner ports.RoutePlanner
	nav     ports.NavState
	message *transientMessage

	mu      sync.Mutex
	current *domain.WalkingRoute
}

// NewRouteService creates a RouteService.
func NewRouteService(planner ports.RoutePlanner, nav ports.NavState, clk clock.Clock) *RouteService {
	return &RouteService{
		planner: planner,
		nav:     nav,
		message: newTransientMessage(clk, routeErrorTTL),
	}
}

// Plan requests a walking route and, on success, stores it and mirrors the
// request into the navigation state. Failures clear any previous route and
// surface only as a transient message.
func (s *RouteService) Plan(ctx context.Context, from, to domain.GeoPoint, fromLabel, toLabel string) (*domain.WalkingRoute, error) {
	route, err := s.planner.WalkingRoute(ctx, from, to)
	if err != nil {
		s.resetLocked()
		if errors.Is(err, ports.ErrNoRoute) {
			metrics.RouteRequests.WithLabelValues("no_route").Inc()
			s.message.set("No walking route found between these points")
			return nil, err
		}
		metrics.RouteRequests.WithLabelValues("error").Inc()
		slog.Warn("walking route failed", "error", err)
		s.message.set("Route planning is unavailable right now")
		return nil, fmt.Errorf("walking route: %w", err)
	}
	metrics.RouteRequests.WithLabelValues("ok").Inc()

	route.FromLabel = fromLabel
	route.ToLabel = toLabel

	s.mu.Lock()
	s.current = route
	s.mu.Unlock()
	s.message.clear()

	s.nav.Set(map[string]string{
		navRoute:   "1",
		navFromLat: formatCoord(from.Lat),
		navFromLng: formatCoord(from.Lng),
		navToLat:   formatCoord(to.Lat),
		navToLng:   formatCoord(to.Lng),
	})

	return route, nil
}

// RestoreFromNav replans a route encoded in the navigation parameters, if
// any. Malformed coordinates are treated as absent.
func (s *RouteService) RestoreFromNav(ctx context.Context) {
	if s.nav.Get(navRoute) == "" {
		return
	}
	fromLat, ok1 := navFloat(s.nav, navFromLat)
	fromLng, ok2 := navFloat(s.nav, navFromLng)
	toLat, ok3 := navFloat(s.nav, navToLat)
	toLng, ok4 := navFloat(s.nav, navToLng)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}
	_, _ = s.Plan(ctx,
		domain.GeoPoint{Lat: fromLat, Lng: fromLng},
		domain.GeoPoint{Lat: toLat, Lng: toLng},
		"", "")
}

// Current returns the active route, or nil.
func (s *RouteService) Current() *domain.WalkingRoute {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Clear removes the active route and its navigation mirror. Clearing an
// already-empty state is a no-op, not an error.
func (s *RouteService) Clear() {
	s.resetLocked()
	s.message.clear()
}

// Message returns the current transient error message, or "".
func (s *RouteService) Message() string {
	return s.message.get()
}

func (s *RouteService) resetLocked() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.nav.Delete(routeNavKeys...)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
