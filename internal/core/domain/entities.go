package domain

import (
	"time"
)

// Record represents a geotagged launch-viewing record created by a user.
type Record struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Location    GeoPoint       `json:"location"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Distance    *float64       `json:"distance,omitempty"` // computed field
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Station represents a transit station shown as a secondary map entity.
type Station struct {
	ID        string    `json:"id"`
	StationID string    `json:"station_id"`
	Name      string    `json:"name"`
	Operator  string    `json:"operator,omitempty"`
	Location  GeoPoint  `json:"location"`
	Distance  *float64  `json:"distance,omitempty"` // computed field
	CreatedAt time.Time `json:"created_at"`
}

// GeocodeMatch is the single best match for a free-text place query.
type GeocodeMatch struct {
	Location    GeoPoint `json:"location"`
	DisplayName string   `json:"display_name"`
	Bounds      *Bounds  `json:"bounds,omitempty"`
}

// WalkingRoute is a computed pedestrian route between two coordinates.
// The polyline is normalized to lat/lng order regardless of wire format.
type WalkingRoute struct {
	From            GeoPoint      `json:"from"`
	To              GeoPoint      `json:"to"`
	FromLabel       string        `json:"from_label,omitempty"`
	ToLabel         string        `json:"to_label,omitempty"`
	Path            GeoLineString `json:"path"`
	DistanceMeters  int           `json:"distance_meters"`
	DurationSeconds int           `json:"duration_seconds"`
}

// RecordEvent is published whenever a record is created, updated or deleted.
type RecordEvent struct {
	Kind     string    `json:"kind"` // "created" | "updated" | "deleted"
	RecordID string    `json:"record_id"`
	Location GeoPoint  `json:"location"`
	At       time.Time `json:"at"`
}
