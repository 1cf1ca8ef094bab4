package usecases

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

// PopupConfig holds the popup orchestration tuning values.
type PopupConfig struct {
	CloseZoom      int           // zoom level for highlight jumps
	HighlightTTL   time.Duration // transient list-highlight duration
	RetryBase      time.Duration // backoff unit, multiplied by attempt number
	MaxRetries     int           // retry budget after the first locate attempt
	MoveFallback   time.Duration // locate anyway if move-end never fires
	CoordTolerance float64       // degrees; absorbs projection/rounding drift
}

// DefaultPopupConfig mirrors the frontend behaviour the map core replaces.
func DefaultPopupConfig() PopupConfig {
	return PopupConfig{
		CloseZoom:      16,
		HighlightTTL:   5 * time.Second,
		RetryBase:      200 * time.Millisecond,
		MaxRetries:     5,
		MoveFallback:   time.Second,
		CoordTolerance: 0.0005,
	}
}

type pendingPopup struct {
	req      domain.HighlightRequest
	marker   ports.Marker // optional direct reference
	attempts int          // retries scheduled so far
	locating bool         // first locate attempt has run
}

// PopupService animates the viewport to a highlight target and opens the
// matching marker popup exactly once, tolerating markers that render late or
// sit slightly off the stored coordinate. Every step is best-effort: a
// marker that never appears is resolved by silently giving up after a
// bounded number of retries.
type PopupService struct {
	clk     clock.Clock
	surface ports.MapSurface
	views   *ViewStateService
	cfg     PopupConfig

	// OnHighlight toggles the transient list-view styling for a target.
	OnHighlight func(id string, on bool)

	mu             sync.Mutex
	current        *pendingPopup
	highlightedID  string
	highlightTimer *clock.Timer
	retryTimer     *clock.Timer
	fallbackTimer  *clock.Timer
	gen            int // invalidates timers superseded by a newer Show
}

// NewPopupService creates a popup orchestrator for one map session.
func NewPopupService(clk clock.Clock, surface ports.MapSurface, views *ViewStateService, cfg PopupConfig) *PopupService {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultPopupConfig().MaxRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultPopupConfig().RetryBase
	}
	if cfg.HighlightTTL <= 0 {
		cfg.HighlightTTL = DefaultPopupConfig().HighlightTTL
	}
	if cfg.MoveFallback <= 0 {
		cfg.MoveFallback = DefaultPopupConfig().MoveFallback
	}
	if cfg.CoordTolerance <= 0 {
		cfg.CoordTolerance = DefaultPopupConfig().CoordTolerance
	}
	return &PopupService{clk: clk, surface: surface, views: views, cfg: cfg}
}

// Show jumps the viewport to the target and schedules the popup opening.
// A marker reference may be supplied when the caller already holds one;
// otherwise rendered markers are scanned by coordinate once the move
// settles. A new Show supersedes any in-flight one and cancels its timers.
func (p *PopupService) Show(req domain.HighlightRequest, marker ports.Marker) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.cancelTimersLocked()
	p.current = &pendingPopup{req: req, marker: marker}

	p.highlightedID = req.ID
	onHighlight := p.OnHighlight
	if p.highlightTimer != nil {
		p.highlightTimer.Stop()
	}
	p.highlightTimer = p.clk.AfterFunc(p.cfg.HighlightTTL, func() {
		p.clearHighlight(gen)
	})
	p.mu.Unlock()

	if onHighlight != nil {
		onHighlight(req.ID, true)
	}

	// A narrow viewport hides the overlapping list panel first; the layout
	// recompute covers the visible-area change either way.
	if p.surface.IsNarrow() {
		p.surface.HideListPanel()
	}
	p.surface.InvalidateSize()

	p.views.JumpTo(domain.ViewState{Center: req.Location, Zoom: p.cfg.CloseZoom}, true)

	p.mu.Lock()
	// Locate even if the animation-complete event never arrives.
	p.fallbackTimer = p.clk.AfterFunc(p.cfg.MoveFallback, func() {
		p.beginLocate(gen)
	})
	p.mu.Unlock()
}

// OnMoveSettled is called on every move-end; it starts the marker search for
// an in-flight popup request.
func (p *PopupService) OnMoveSettled() {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.beginLocate(gen)
}

// HighlightedID returns the id currently highlighted for list styling.
func (p *PopupService) HighlightedID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highlightedID
}

// Close cancels all outstanding timers.
func (p *PopupService) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.cancelTimersLocked()
	if p.highlightTimer != nil {
		p.highlightTimer.Stop()
		p.highlightTimer = nil
	}
	p.current = nil
}

func (p *PopupService) beginLocate(gen int) {
	p.mu.Lock()
	if gen != p.gen || p.current == nil || p.current.locating {
		p.mu.Unlock()
		return
	}
	p.current.locating = true
	if p.fallbackTimer != nil {
		p.fallbackTimer.Stop()
		p.fallbackTimer = nil
	}
	p.mu.Unlock()

	p.attempt(gen)
}

// attempt tries to locate and open the marker once, scheduling a backed-off
// retry when the marker is not there yet.
func (p *PopupService) attempt(gen int) {
	p.mu.Lock()
	if gen != p.gen || p.current == nil {
		p.mu.Unlock()
		return
	}
	req := p.current.req
	direct := p.current.marker
	p.mu.Unlock()

	if m := p.findMarker(req, direct); m != nil {
		m.OpenPopup()
		p.finish(gen)
		return
	}

	p.mu.Lock()
	if gen != p.gen || p.current == nil {
		p.mu.Unlock()
		return
	}
	p.current.attempts++
	if p.current.attempts > p.cfg.MaxRetries {
		p.mu.Unlock()
		// Not an error: the target may have been deleted concurrently.
		metrics.PopupRetriesExhausted.Inc()
		p.finish(gen)
		return
	}
	delay := p.cfg.RetryBase * time.Duration(p.current.attempts)
	p.retryTimer = p.clk.AfterFunc(delay, func() {
		p.attempt(gen)
	})
	p.mu.Unlock()
}

// finish consumes the highlight request whether or not the popup opened.
func (p *PopupService) finish(gen int) {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.cancelTimersLocked()
	p.mu.Unlock()

	p.views.ConsumeHighlight()
}

func (p *PopupService) findMarker(req domain.HighlightRequest, direct ports.Marker) ports.Marker {
	if direct != nil && direct.Visible() {
		return direct
	}
	for _, m := range p.surface.Markers() {
		if !m.Visible() {
			continue
		}
		at := m.LatLng()
		if math.Abs(at.Lat-req.Location.Lat) <= p.cfg.CoordTolerance &&
			math.Abs(at.Lng-req.Location.Lng) <= p.cfg.CoordTolerance {
			return m
		}
	}
	return nil
}

func (p *PopupService) clearHighlight(gen int) {
	p.mu.Lock()
	if gen != p.gen || p.highlightedID == "" {
		p.mu.Unlock()
		return
	}
	id := p.highlightedID
	p.highlightedID = ""
	onHighlight := p.OnHighlight
	p.mu.Unlock()

	if onHighlight != nil {
		onHighlight(id, false)
	}
}

func (p *PopupService) cancelTimersLocked() {
	if p.retryTimer != nil {
		p.retryTimer.Stop()
		p.retryTimer = nil
	}
	if p.fallbackTimer != nil {
		p.fallbackTimer.Stop()
		p.fallbackTimer = nil
	}
}
