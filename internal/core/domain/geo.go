package domain

// GeoPoint represents a geographic coordinate (WGS 84, decimal degrees).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoLineString represents an ordered sequence of geographic coordinates,
// e.g. a walking-route polyline.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}
