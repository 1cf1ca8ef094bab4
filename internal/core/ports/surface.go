package ports

import (
	"context"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// Marker is the on-screen representation of one entity's coordinate.
type Marker interface {
	ID() string
	LatLng() domain.GeoPoint
	// Visible reports whether the marker element is attached and rendered.
	Visible() bool
	OpenPopup()
}

// MapSurface is the imperative API of the rendering layer. The core treats
// it as an opaque command sink plus a synchronous view of rendered markers;
// input flows back separately as normalized domain.InputEvents.
type MapSurface interface {
	SetView(center domain.GeoPoint, zoom int, animate bool)
	FitBounds(b domain.Bounds)
	InvalidateSize()
	Markers() []Marker
	ShowContextMenu(menu domain.ContextMenuState)
	HideContextMenu()
	// IsNarrow reports whether the viewport is narrow enough that the list
	// panel overlaps the map.
	IsNarrow() bool
	HideListPanel()
}

// NavState mirrors the shareable navigation query parameters. Values are
// always strings; absent keys read as "".
type NavState interface {
	Get(key string) string
	Set(pairs map[string]string)
	Delete(keys ...string)
}

// SnapshotStore persists the best-effort session view snapshot used for
// back-navigation restore. Both operations may fail; callers are expected
// to swallow the errors.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
