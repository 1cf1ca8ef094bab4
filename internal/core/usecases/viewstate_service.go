package usecases

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
)

// Navigation parameter keys shared with the frontend. Values are always
// strings; anything that does not parse to a finite number reads as absent.
const (
	navHighlight   = "highlight"
	navLat         = "lat"
	navLng         = "lng"
	navCenterLat   = "centerLat"
	navCenterLng   = "centerLng"
	navZoom        = "zoom"
	navStationID   = "stationId"
	navStationLat  = "stationLat"
	navStationLng  = "stationLng"
	navStationName = "stationName"
	navRoute       = "walkingRoute"
	navFromLat     = "fromLat"
	navFromLng     = "fromLng"
	navToLat       = "toLat"
	navToLng       = "toLng"
)

// highlightNavKeys are cleared when a manual pan invalidates a prior
// "jump to X" intent.
var highlightNavKeys = []string{
	navHighlight, navLat, navLng,
	navStationID, navStationLat, navStationLng, navStationName,
}

// viewSnapshot is the persisted session snapshot payload.
type viewSnapshot struct {
	CenterLat float64 `json:"centerLat"`
	CenterLng float64 `json:"centerLng"`
	Zoom      int     `json:"zoom"`
}

// ViewStateService keeps the live viewport, the shareable navigation
// parameters and the best-effort session snapshot coherent. The live map
// surface holds the authoritative ViewState; the two mirrors are read-through
// caches used only when (re)initializing.
type ViewStateService struct {
	surface ports.MapSurface
	nav     ports.NavState
	snaps   ports.SnapshotStore
	def     domain.ViewState

	mu sync.Mutex
	// programmatic marks the next move-end as synchronizer-initiated so it
	// does not overwrite the snapshot it is restoring from.
	programmatic bool
}

// NewViewStateService creates a synchronizer for one map session.
func NewViewStateService(surface ports.MapSurface, nav ports.NavState, snaps ports.SnapshotStore, def domain.ViewState) *ViewStateService {
	return &ViewStateService{surface: surface, nav: nav, snaps: snaps, def: def}
}

// Resolve applies the precedence rules and positions the viewport:
//
//  1. an explicit highlight target in the navigation state wins; it is
//     returned to the caller for the popup orchestrator and the snapshot is
//     ignored (the orchestrator centers the viewport itself);
//  2. explicit center/zoom navigation parameters;
//  3. a well-formed session snapshot;
//  4. the fixed default view.
//
// It runs on initialization and again whenever the navigation state changes.
func (s *ViewStateService) Resolve(ctx context.Context) *domain.HighlightRequest {
	if req := s.parseHighlight(); req != nil {
		return req
	}

	if v, ok := s.navView(); ok {
		s.JumpTo(v, false)
		return nil
	}

	if v, ok := s.snapshotView(ctx); ok {
		s.JumpTo(v, false)
		return nil
	}

	s.JumpTo(s.def, false)
	return nil
}

// JumpTo moves the viewport programmatically. The resulting move-end must
// not be mistaken for a user pan.
func (s *ViewStateService) JumpTo(v domain.ViewState, animate bool) {
	s.mu.Lock()
	s.programmatic = true
	s.mu.Unlock()
	s.surface.SetView(v.Center, v.Zoom, animate)
}

// FitBounds frames the viewport around an area. Like JumpTo, the resulting
// move-end is programmatic and must not capture a snapshot.
func (s *ViewStateService) FitBounds(b domain.Bounds) {
	s.mu.Lock()
	s.programmatic = true
	s.mu.Unlock()
	s.surface.FitBounds(b)
}

// OnMoveEnd reacts to the viewport settling. A user-driven move captures the
// new view into the session snapshot (storage failures are swallowed, e.g.
// private browsing) and clears any stale highlight intent from the
// navigation state. A synchronizer-initiated move does neither.
func (s *ViewStateService) OnMoveEnd(ctx context.Context, v domain.ViewState) {
	s.mu.Lock()
	wasProgrammatic := s.programmatic
	s.programmatic = false
	s.mu.Unlock()

	if wasProgrammatic {
		return
	}

	snap := viewSnapshot{CenterLat: v.Center.Lat, CenterLng: v.Center.Lng, Zoom: v.Zoom}
	if data, err := json.Marshal(snap); err == nil {
		_ = s.snaps.Save(ctx, data)
	}

	s.nav.Delete(highlightNavKeys...)
}

// DefaultView returns the configured fallback view.
func (s *ViewStateService) DefaultView() domain.ViewState {
	return s.def
}

// ConsumeHighlight removes the highlight parameters once the corresponding
// popup has opened or its retry budget is exhausted.
func (s *ViewStateService) ConsumeHighlight() {
	s.nav.Delete(highlightNavKeys...)
}

func (s *ViewStateService) parseHighlight() *domain.HighlightRequest {
	if id := s.nav.Get(navHighlight); id != "" {
		lat, okLat := navFloat(s.nav, navLat)
		lng, okLng := navFloat(s.nav, navLng)
		if okLat && okLng {
			return &domain.HighlightRequest{
				Kind:     domain.HighlightRecord,
				ID:       id,
				Location: domain.GeoPoint{Lat: lat, Lng: lng},
			}
		}
	}

	if id := s.nav.Get(navStationID); id != "" {
		lat, okLat := navFloat(s.nav, navStationLat)
		lng, okLng := navFloat(s.nav, navStationLng)
		if okLat && okLng {
			return &domain.HighlightRequest{
				Kind:        domain.HighlightStation,
				ID:          id,
				Location:    domain.GeoPoint{Lat: lat, Lng: lng},
				DisplayName: s.nav.Get(navStationName),
			}
		}
	}

	return nil
}

func (s *ViewStateService) navView() (domain.ViewState, bool) {
	lat, okLat := navFloat(s.nav, navCenterLat)
	lng, okLng := navFloat(s.nav, navCenterLng)
	zoom, okZoom := navInt(s.nav, navZoom)
	if !okLat || !okLng || !okZoom {
		return domain.ViewState{}, false
	}
	return domain.ViewState{Center: domain.GeoPoint{Lat: lat, Lng: lng}, Zoom: zoom}, true
}

func (s *ViewStateService) snapshotView(ctx context.Context) (domain.ViewState, bool) {
	data, err := s.snaps.Load(ctx)
	if err != nil || len(data) == 0 {
		return domain.ViewState{}, false
	}

	var snap viewSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.ViewState{}, false
	}
	if !finite(snap.CenterLat) || !finite(snap.CenterLng) {
		return domain.ViewState{}, false
	}

	return domain.ViewState{
		Center: domain.GeoPoint{Lat: snap.CenterLat, Lng: snap.CenterLng},
		Zoom:   snap.Zoom,
	}, true
}

func navFloat(nav ports.NavState, key string) (float64, bool) {
	raw := nav.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func navInt(nav ports.NavState, key string) (int, bool) {
	raw := nav.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
