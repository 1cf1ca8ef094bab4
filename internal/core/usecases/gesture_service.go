package usecases

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
)

// GestureConfig holds the disambiguation thresholds.
type GestureConfig struct {
	LongPress      time.Duration // press-and-hold promotion threshold
	SuppressWindow time.Duration // synthetic click suppression window after a long-press
	OriginSlackPx  int           // max pixel delta for a click to count as the press origin
}

// DefaultGestureConfig mirrors the browser behaviour the map core replaces.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		LongPress:      500 * time.Millisecond,
		SuppressWindow: 500 * time.Millisecond,
		OriginSlackPx:  10,
	}
}

// ClickOutcome is the disambiguator's verdict on a click event.
type ClickOutcome int

const (
	// ClickPassthrough means the click is an ordinary map click and the
	// surface's own handling proceeds unimpeded.
	ClickPassthrough ClickOutcome = iota
	// ClickSwallowed means the click was the synthetic follow-up of a
	// long-press promotion and must be ignored.
	ClickSwallowed
	// ClickClosedMenu means the click was an outside click that closed an
	// open context menu.
	ClickClosedMenu
)

type gesturePhase int

const (
	phaseIdle gesturePhase = iota
	phasePending
	phaseMenuOpen
)

// GestureService classifies press/release/move sequences into user intents:
// ordinary click, long-press menu, or right-click menu. All transitions are
// total; an event arriving in an unexpected phase is a no-op.
//
// The service owns the session's single PendingGesture and single
// ContextMenuState. The previous instance is always torn down before a new
// one is created, and every timer is cancelled when superseded.
type GestureService struct {
	clk     clock.Clock
	cfg     GestureConfig
	surface ports.MapSurface

	// OnMenuOpen and OnMenuClose, when set, are invoked after the surface
	// has been told to show or hide the menu. They may fire from the
	// long-press timer goroutine.
	OnMenuOpen  func(menu domain.ContextMenuState)
	OnMenuClose func()

	mu      sync.Mutex
	phase   gesturePhase
	pending *domain.PendingGesture
	menu    *domain.ContextMenuState
	timer   *clock.Timer
	gen     int // invalidates timer callbacks from superseded gestures

	// swallowArmed is a one-shot token set by a long-press promotion. The
	// synthetic click that follows the promotion consumes it; the elapsed
	// time guard prevents it from staying armed if that click never comes.
	swallowArmed bool
}

// NewGestureService creates a disambiguator for one map session.
func NewGestureService(clk clock.Clock, cfg GestureConfig, surface ports.MapSurface) *GestureService {
	if cfg.LongPress <= 0 {
		cfg.LongPress = DefaultGestureConfig().LongPress
	}
	if cfg.SuppressWindow <= 0 {
		cfg.SuppressWindow = DefaultGestureConfig().SuppressWindow
	}
	if cfg.OriginSlackPx <= 0 {
		cfg.OriginSlackPx = DefaultGestureConfig().OriginSlackPx
	}
	return &GestureService{clk: clk, cfg: cfg, surface: surface, phase: phaseIdle}
}

// HandlePress records a new pending gesture and arms the long-press timer.
// Presses landing on markers or popups are ignored; those have their own
// click targets.
func (g *GestureService) HandlePress(ev domain.InputEvent) {
	if ev.OnOverlay {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == phaseMenuOpen {
		return
	}

	g.dropPendingLocked()
	g.pending = &domain.PendingGesture{
		Screen:    ev.Screen,
		Geo:       ev.Geo,
		StartedAt: g.clk.Now(),
	}
	g.phase = phasePending

	gen := g.gen
	g.timer = g.clk.AfterFunc(g.cfg.LongPress, func() {
		g.promote(gen)
	})
}

// HandleRelease resolves a pending gesture as an ordinary click or tap.
func (g *GestureService) HandleRelease(ev domain.InputEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != phasePending {
		return
	}
	g.dropPendingLocked()
	g.phase = phaseIdle
}

// HandleClick resolves a delivered click against the open menu, if any.
func (g *GestureService) HandleClick(ev domain.InputEvent) ClickOutcome {
	g.mu.Lock()

	if g.phase != phaseMenuOpen || g.menu == nil {
		g.mu.Unlock()
		return ClickPassthrough
	}

	// A long-press promotion is followed by a synthetic release-then-click
	// from the input system. Exactly one such click is swallowed: the token
	// must still be armed, the click must match the press origin, and it
	// must arrive inside the suppression window of the menu opening.
	if g.menu.OpenedByLongPress && g.swallowArmed &&
		g.clk.Now().Sub(g.menu.OpenedAt) <= g.cfg.SuppressWindow &&
		g.nearOrigin(ev.Screen) {
		g.swallowArmed = false
		g.mu.Unlock()
		return ClickSwallowed
	}

	g.closeMenuLocked()
	onClose := g.OnMenuClose
	g.mu.Unlock()

	if onClose != nil {
		onClose()
	}
	return ClickClosedMenu
}

// HandleSecondary opens the context menu immediately at the click point,
// bypassing the long-press timer.
func (g *GestureService) HandleSecondary(ev domain.InputEvent) {
	if ev.OnOverlay {
		return
	}

	g.mu.Lock()
	g.dropPendingLocked()
	g.closeMenuLocked()
	menu := g.openMenuLocked(ev.Screen, ev.Geo, false)
	onOpen := g.OnMenuOpen
	g.mu.Unlock()

	if onOpen != nil {
		onOpen(menu)
	}
}

// HandleMoveStart cancels any pending gesture and closes the menu: neither
// can coexist with an in-progress pan.
func (g *GestureService) HandleMoveStart() {
	g.mu.Lock()
	g.dropPendingLocked()
	wasOpen := g.phase == phaseMenuOpen
	g.closeMenuLocked()
	g.phase = phaseIdle
	onClose := g.OnMenuClose
	g.mu.Unlock()

	if wasOpen && onClose != nil {
		onClose()
	}
}

// CloseMenu handles an explicit close request (menu dismiss button).
func (g *GestureService) CloseMenu() {
	g.mu.Lock()
	wasOpen := g.phase == phaseMenuOpen
	g.closeMenuLocked()
	g.phase = phaseIdle
	onClose := g.OnMenuClose
	g.mu.Unlock()

	if wasOpen && onClose != nil {
		onClose()
	}
}

// Menu returns a snapshot of the open context menu, or nil.
func (g *GestureService) Menu() *domain.ContextMenuState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.menu == nil {
		return nil
	}
	m := *g.menu
	return &m
}

// Close tears the service down, cancelling any live timer.
func (g *GestureService) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dropPendingLocked()
	g.closeMenuLocked()
	g.phase = phaseIdle
}

// promote fires when the long-press timer matures.
func (g *GestureService) promote(gen int) {
	g.mu.Lock()

	// A stale timer from a superseded gesture must not fire.
	if gen != g.gen || g.phase != phasePending || g.pending == nil {
		g.mu.Unlock()
		return
	}

	screen, geo := g.pending.Screen, g.pending.Geo
	g.pending = nil
	g.timer = nil
	menu := g.openMenuLocked(screen, geo, true)
	onOpen := g.OnMenuOpen
	g.mu.Unlock()

	if onOpen != nil {
		onOpen(menu)
	}
}

func (g *GestureService) openMenuLocked(screen domain.ScreenPoint, geo domain.GeoPoint, byLongPress bool) domain.ContextMenuState {
	menu := domain.ContextMenuState{
		Visible:           true,
		Position:          screen,
		Target:            geo,
		OpenedByLongPress: byLongPress,
		OpenedAt:          g.clk.Now(),
	}
	g.menu = &menu
	g.phase = phaseMenuOpen
	g.swallowArmed = byLongPress
	if g.surface != nil {
		g.surface.ShowContextMenu(menu)
	}
	return menu
}

func (g *GestureService) closeMenuLocked() {
	if g.menu == nil {
		return
	}
	g.menu = nil
	g.swallowArmed = false
	g.phase = phaseIdle
	if g.surface != nil {
		g.surface.HideContextMenu()
	}
}

func (g *GestureService) dropPendingLocked() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.pending = nil
	if g.phase == phasePending {
		g.phase = phaseIdle
	}
}

func (g *GestureService) nearOrigin(p domain.ScreenPoint) bool {
	if g.menu == nil {
		return false
	}
	dx := p.X - g.menu.Position.X
	dy := p.Y - g.menu.Position.Y
	return abs(dx) <= g.cfg.OriginSlackPx && abs(dy) <= g.cfg.OriginSlackPx
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
