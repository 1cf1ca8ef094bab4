package usecases

import (
	"context"
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

// SessionConfig bundles the per-session tuning values.
type SessionConfig struct {
	Gesture     GestureConfig
	Popup       PopupConfig
	DefaultView domain.ViewState
}

// MapSession is the interaction core of one connected map client. It owns
// the gesture disambiguator, the view-state synchronizer and the popup
// orchestrator, and feeds them normalized input events in arrival order.
// All session state lives behind this one entry point; the caller delivers
// events from a single reader loop.
type MapSession struct {
	log *slog.Logger
	cfg SessionConfig

	Gestures *GestureService
	Views    *ViewStateService
	Popups   *PopupService
	Routes   *RouteService
	Search   *GeocodeService
}

// NewMapSession wires the interaction core for one connection.
func NewMapSession(
	clk clock.Clock,
	surface ports.MapSurface,
	nav ports.NavState,
	snaps ports.SnapshotStore,
	planner ports.RoutePlanner,
	geocoder ports.Geocoder,
	cfg SessionConfig,
	log *slog.Logger,
) *MapSession {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Popup.CloseZoom <= 0 {
		cfg.Popup.CloseZoom = DefaultPopupConfig().CloseZoom
	}

	views := NewViewStateService(surface, nav, snaps, cfg.DefaultView)
	popups := NewPopupService(clk, surface, views, cfg.Popup)
	gestures := NewGestureService(clk, cfg.Gesture, surface)
	routes := NewRouteService(planner, nav, clk)
	search := NewGeocodeService(geocoder, clk)

	gestures.OnMenuOpen = func(menu domain.ContextMenuState) {
		trigger := "rightclick"
		if menu.OpenedByLongPress {
			trigger = "longpress"
			metrics.GesturesClassified.WithLabelValues("longpress").Inc()
		}
		metrics.ContextMenusOpened.WithLabelValues(trigger).Inc()
		log.Debug("context menu opened", "trigger", trigger,
			"lat", menu.Target.Lat, "lng", menu.Target.Lng)
	}

	s := &MapSession{
		log:      log,
		cfg:      cfg,
		Gestures: gestures,
		Views:    views,
		Popups:   popups,
		Routes:   routes,
		Search:   search,
	}
	metrics.ActiveMapSessions.Inc()
	return s
}

// Start resolves the initial view from the navigation state and kicks off
// any deep-linked highlight or walking route.
func (s *MapSession) Start(ctx context.Context) {
	if req := s.Views.Resolve(ctx); req != nil {
		s.Popups.Show(*req, nil)
	}
	s.Routes.RestoreFromNav(ctx)
}

// Handle dispatches one normalized input event. Events must be delivered in
// arrival order; an event that makes no sense in the current state is a
// no-op.
func (s *MapSession) Handle(ctx context.Context, ev domain.InputEvent) {
	switch ev.Type {
	case domain.EventPress:
		s.Gestures.HandlePress(ev)

	case domain.EventRelease:
		s.Gestures.HandleRelease(ev)

	case domain.EventClick:
		switch s.Gestures.HandleClick(ev) {
		case ClickSwallowed:
			metrics.SyntheticClicksSwallowed.Inc()
		case ClickPassthrough:
			metrics.GesturesClassified.WithLabelValues("click").Inc()
		}

	case domain.EventSecondary:
		s.Gestures.HandleSecondary(ev)

	case domain.EventMoveStart:
		metrics.GesturesClassified.WithLabelValues("pan").Inc()
		s.Gestures.HandleMoveStart()

	case domain.EventMoveEnd:
		s.Popups.OnMoveSettled()
		if ev.View != nil {
			s.Views.OnMoveEnd(ctx, *ev.View)
		}

	case domain.EventNavChange:
		if req := s.Views.Resolve(ctx); req != nil {
			s.Popups.Show(*req, nil)
		}
		s.Routes.RestoreFromNav(ctx)

	case domain.EventMenuClose:
		s.Gestures.CloseMenu()
	}
}

// Locate resolves a free-text place query and moves the viewport to the
// match. Matches with a bounding box fit the whole area; point matches jump
// to the popup zoom level. Returns nil when nothing matched or the provider
// failed; Search.Message() then carries the user-facing text.
func (s *MapSession) Locate(ctx context.Context, query string) *domain.GeocodeMatch {
	match, err := s.Search.Search(ctx, query)
	if err != nil || match == nil {
		return nil
	}
	if match.Bounds != nil {
		s.Views.FitBounds(*match.Bounds)
	} else {
		s.Views.JumpTo(domain.ViewState{Center: match.Location, Zoom: s.cfg.Popup.CloseZoom}, true)
	}
	return match
}

// Close tears the session down, cancelling every outstanding timer.
func (s *MapSession) Close() {
	s.Gestures.Close()
	s.Popups.Close()
	metrics.ActiveMapSessions.Dec()
}
