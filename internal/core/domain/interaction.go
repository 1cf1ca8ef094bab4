package domain

import (
	"time"
)

// ScreenPoint is a pixel coordinate inside the map container. Screen points
// are transient and recomputed per event.
type ScreenPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ViewState is the map viewport: center plus integer zoom level. The live
// map surface holds the authoritative value; navigation parameters and the
// session snapshot are read-through mirrors of it.
type ViewState struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
}

// PendingGesture tracks a press that has not yet been classified as a click,
// a drag, or a long-press. At most one exists per session; a new press-down
// replaces any existing one.
type PendingGesture struct {
	Screen    ScreenPoint
	Geo       GeoPoint
	StartedAt time.Time
}

// ContextMenuState describes an open map context menu.
type ContextMenuState struct {
	Visible           bool        `json:"visible"`
	Position          ScreenPoint `json:"position"`
	Target            GeoPoint    `json:"target"`
	OpenedByLongPress bool        `json:"opened_by_long_press"`
	OpenedAt          time.Time   `json:"opened_at"`
}

// HighlightKind distinguishes the two entity kinds a deep link can target.
type HighlightKind string

const (
	HighlightRecord  HighlightKind = "record"
	HighlightStation HighlightKind = "station"
)

// HighlightRequest asks the map to jump to an entity and open its popup.
// It is produced by parsing inbound navigation parameters and consumed once
// the popup opens or the retry budget is exhausted.
type HighlightRequest struct {
	Kind        HighlightKind `json:"kind"`
	ID          string        `json:"id"`
	Location    GeoPoint      `json:"location"`
	DisplayName string        `json:"display_name,omitempty"`
}

// PointerKind identifies the input device behind a normalized event.
type PointerKind string

const (
	PointerMouse PointerKind = "mouse"
	PointerTouch PointerKind = "touch"
)

// EventType enumerates the normalized input events the map core consumes.
// The surface adapter folds touch and mouse input into this one shape so the
// gesture state machine never branches on the originating event system.
type EventType string

const (
	EventPress     EventType = "press"     // primary button / touch down
	EventRelease   EventType = "release"   // primary button / touch up
	EventClick     EventType = "click"     // click or tap, after release
	EventSecondary EventType = "secondary" // right-click / two-finger tap
	EventMoveStart EventType = "movestart" // viewport pan or zoom began
	EventMoveEnd   EventType = "moveend"   // viewport settled
	EventNavChange EventType = "nav"       // navigation parameters changed
	EventMenuClose EventType = "menuclose" // explicit context-menu close
)

// InputEvent is the single normalized event shape delivered to a map
// session, in arrival order.
type InputEvent struct {
	Type      EventType   `json:"type"`
	Screen    ScreenPoint `json:"screen"`
	Geo       GeoPoint    `json:"geo"`
	Kind      PointerKind `json:"kind,omitempty"`
	OnOverlay bool        `json:"on_overlay,omitempty"` // landed on a marker or popup
	View      *ViewState  `json:"view,omitempty"`       // movestart/moveend payload
}
