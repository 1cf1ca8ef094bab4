package geospatial

import (
	"math"
	"sort"
)

// Hit pairs a candidate with its computed distance from the query origin.
// DistanceMeters is rounded to the nearest meter and never negative.
type Hit[T any] struct {
	Item           T   `json:"item"`
	DistanceMeters int `json:"distance_meters"`
}

// FindNearby ranks candidates by great-circle distance from the origin.
// Candidates farther than maxDistanceMeters are dropped, the rest are sorted
// ascending by distance (ties keep input order) and truncated to maxResults.
// The input slice is never mutated; locate extracts a candidate's lat/lng.
func FindNearby[T any](originLat, originLng float64, candidates []T, locate func(T) (lat, lng float64), maxDistanceMeters float64, maxResults int) []Hit[T] {
	hits := make([]Hit[T], 0, len(candidates))
	for _, c := range candidates {
		lat, lng := locate(c)
		d := math.Round(Haversine(originLat, originLng, lat, lng))
		if d > maxDistanceMeters {
			continue
		}
		hits = append(hits, Hit[T]{Item: c, DistanceMeters: int(d)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].DistanceMeters < hits[j].DistanceMeters
	})

	if maxResults >= 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits
}
