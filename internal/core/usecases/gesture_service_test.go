package usecases_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/usecases"
)

func pressAt(x, y int) domain.InputEvent {
	return domain.InputEvent{
		Type:   domain.EventPress,
		Screen: domain.ScreenPoint{X: x, Y: y},
		Geo:    domain.GeoPoint{Lat: 28.4555, Lng: -80.5286},
		Kind:   domain.PointerMouse,
	}
}

func clickAt(x, y int) domain.InputEvent {
	return domain.InputEvent{
		Type:   domain.EventClick,
		Screen: domain.ScreenPoint{X: x, Y: y},
	}
}

func TestGesture_ShortPressIsOrdinaryClick(t *testing.T) {
	mock := clock.NewMock()
	surface := &fakeSurface{}
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), surface)

	g.HandlePress(pressAt(100, 100))
	mock.Add(300 * time.Millisecond)
	g.HandleRelease(domain.InputEvent{Type: domain.EventRelease})

	// The timer must not fire later against the released gesture.
	mock.Add(time.Second)

	if g.Menu() != nil {
		t.Fatal("short press opened a context menu")
	}
	if out := g.HandleClick(clickAt(100, 100)); out != usecases.ClickPassthrough {
		t.Errorf("click outcome = %v, want passthrough", out)
	}
}

func TestGesture_LongPressOpensMenu(t *testing.T) {
	mock := clock.NewMock()
	surface := &fakeSurface{}
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), surface)

	var opened []domain.ContextMenuState
	g.OnMenuOpen = func(m domain.ContextMenuState) { opened = append(opened, m) }

	g.HandlePress(pressAt(120, 80))
	mock.Add(600 * time.Millisecond)

	menu := g.Menu()
	if menu == nil {
		t.Fatal("long press did not open a menu")
	}
	if !menu.OpenedByLongPress {
		t.Error("menu not flagged as long-press")
	}
	if menu.Position != (domain.ScreenPoint{X: 120, Y: 80}) {
		t.Errorf("menu opened at %+v, want press-down point", menu.Position)
	}
	if len(opened) != 1 {
		t.Errorf("OnMenuOpen fired %d times, want 1", len(opened))
	}
	if surface.menu == nil {
		t.Error("surface was not told to show the menu")
	}
}

func TestGesture_PanCancelsPendingGesture(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandlePress(pressAt(50, 50))
	mock.Add(100 * time.Millisecond)
	g.HandleMoveStart()
	mock.Add(500 * time.Millisecond)
	g.HandleRelease(domain.InputEvent{Type: domain.EventRelease})

	if g.Menu() != nil {
		t.Fatal("menu opened despite pan cancelling the press")
	}
}

func TestGesture_RightClickOpensImmediately(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandleSecondary(domain.InputEvent{
		Type:   domain.EventSecondary,
		Screen: domain.ScreenPoint{X: 33, Y: 44},
		Geo:    domain.GeoPoint{Lat: 28.4555, Lng: -80.5286},
	})

	menu := g.Menu()
	if menu == nil {
		t.Fatal("right-click did not open the menu")
	}
	if menu.OpenedByLongPress {
		t.Error("right-click menu flagged as long-press")
	}
	if menu.Position != (domain.ScreenPoint{X: 33, Y: 44}) {
		t.Errorf("menu at %+v, want the click coordinate", menu.Position)
	}
}

func TestGesture_SyntheticClickSuppression(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandlePress(pressAt(200, 200))
	mock.Add(500 * time.Millisecond) // promotes

	if g.Menu() == nil {
		t.Fatal("menu not open after promotion")
	}

	// The synthetic click lands at the press origin shortly after opening.
	mock.Add(50 * time.Millisecond)
	if out := g.HandleClick(clickAt(200, 200)); out != usecases.ClickSwallowed {
		t.Fatalf("synthetic click outcome = %v, want swallowed", out)
	}
	if g.Menu() == nil {
		t.Fatal("menu closed by the synthetic click")
	}

	// A genuine outside click later closes the menu normally.
	mock.Add(550 * time.Millisecond)
	if out := g.HandleClick(clickAt(400, 10)); out != usecases.ClickClosedMenu {
		t.Fatalf("outside click outcome = %v, want closed menu", out)
	}
	if g.Menu() != nil {
		t.Fatal("menu still open after outside click")
	}
}

func TestGesture_SuppressionIsOneShot(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandlePress(pressAt(200, 200))
	mock.Add(500 * time.Millisecond)

	if out := g.HandleClick(clickAt(200, 200)); out != usecases.ClickSwallowed {
		t.Fatalf("first click outcome = %v, want swallowed", out)
	}
	// A second click at the same point inside the window is genuine.
	if out := g.HandleClick(clickAt(200, 200)); out != usecases.ClickClosedMenu {
		t.Fatalf("second click outcome = %v, want closed menu", out)
	}
}

func TestGesture_RightClickMenuClosesOnAnyClick(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandleSecondary(domain.InputEvent{Type: domain.EventSecondary, Screen: domain.ScreenPoint{X: 10, Y: 10}})

	// No suppression for right-click menus, even at the same coordinate.
	if out := g.HandleClick(clickAt(10, 10)); out != usecases.ClickClosedMenu {
		t.Fatalf("click outcome = %v, want closed menu", out)
	}
}

func TestGesture_MoveStartClosesMenu(t *testing.T) {
	mock := clock.NewMock()
	surface := &fakeSurface{}
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), surface)

	closed := 0
	g.OnMenuClose = func() { closed++ }

	g.HandleSecondary(domain.InputEvent{Type: domain.EventSecondary, Screen: domain.ScreenPoint{X: 1, Y: 1}})
	g.HandleMoveStart()

	if g.Menu() != nil {
		t.Fatal("menu open after move start")
	}
	if closed != 1 {
		t.Errorf("OnMenuClose fired %d times, want 1", closed)
	}
	if surface.menuHides != 1 {
		t.Errorf("surface hide calls = %d, want 1", surface.menuHides)
	}
}

func TestGesture_NewPressReplacesPending(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandlePress(pressAt(10, 10))
	mock.Add(400 * time.Millisecond)
	g.HandlePress(pressAt(90, 90)) // replaces, restarting the timer
	mock.Add(200 * time.Millisecond)

	// 600 ms after the first press but only 200 ms after the second:
	// no promotion yet.
	if g.Menu() != nil {
		t.Fatal("menu opened from a superseded gesture timer")
	}

	mock.Add(300 * time.Millisecond)
	menu := g.Menu()
	if menu == nil {
		t.Fatal("second press never promoted")
	}
	if menu.Position != (domain.ScreenPoint{X: 90, Y: 90}) {
		t.Errorf("menu at %+v, want the second press point", menu.Position)
	}
}

func TestGesture_OverlayPressIgnored(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	ev := pressAt(5, 5)
	ev.OnOverlay = true
	g.HandlePress(ev)
	mock.Add(time.Second)

	if g.Menu() != nil {
		t.Fatal("press on a marker opened the map context menu")
	}
}

func TestGesture_CloseCancelsTimers(t *testing.T) {
	mock := clock.NewMock()
	g := usecases.NewGestureService(mock, usecases.DefaultGestureConfig(), &fakeSurface{})

	g.HandlePress(pressAt(10, 10))
	g.Close()
	mock.Add(time.Second)

	if g.Menu() != nil {
		t.Fatal("timer fired after Close")
	}
}
