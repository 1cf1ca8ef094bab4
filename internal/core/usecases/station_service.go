package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/geospatial"
)

// StationService serves the transit stations shown in context-menu popups.
type StationService struct {
	stations ports.StationRepository
	cache    ports.CacheService
}

// NewStationService creates a new StationService.
func NewStationService(stations ports.StationRepository, cache ports.CacheService) *StationService {
	return &StationService{stations: stations, cache: cache}
}

// GetByID returns a single station.
func (s *StationService) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	return s.stations.GetByID(ctx, id)
}

// FindNearby returns stations within radiusMeters of the origin, annotated
// with their distance and ordered nearest first.
func (s *StationService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Station, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("stations:nearby:%.4f:%.4f:%.0f:%d", lat, lng, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sts []domain.Station
			if err := json.Unmarshal(data, &sts); err == nil {
				return sts, nil
			}
		}
	}

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)
	candidates, err := s.stations.ListInBounds(ctx, domain.Bounds{
		MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng,
	}, 500)
	if err != nil {
		return nil, fmt.Errorf("nearby candidates: %w", err)
	}

	hits := geospatial.FindNearby(lat, lng, candidates,
		func(st domain.Station) (float64, float64) { return st.Location.Lat, st.Location.Lng },
		radiusMeters, limit)

	sts := make([]domain.Station, 0, len(hits))
	for _, h := range hits {
		st := h.Item
		d := float64(h.DistanceMeters)
		st.Distance = &d
		sts = append(sts, st)
	}

	// Stations change rarely; cache for 5 minutes like other geo queries.
	if s.cache != nil {
		if data, err := json.Marshal(sts); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return sts, nil
}
