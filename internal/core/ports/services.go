package ports

import (
	"context"
	"errors"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// ErrNoRoute is returned by RoutePlanner when no walkable path exists
// between the two coordinates.
var ErrNoRoute = errors.New("no walkable route found")

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *domain.RecordEvent) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves a free-text query to at most one best match.
// A nil match with a nil error means the query resolved to nothing.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeocodeMatch, error)
}

// RoutePlanner computes a pedestrian route between two coordinates.
// Implementations normalize the result to lat/lng order regardless of the
// wire-level coordinate order. Returns ErrNoRoute when no path exists.
type RoutePlanner interface {
	WalkingRoute(ctx context.Context, from, to domain.GeoPoint) (*domain.WalkingRoute, error)
}
