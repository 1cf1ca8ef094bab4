package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/pkg/geospatial"
)

// RecordService handles launch-record business logic.
type RecordService struct {
	records ports.RecordRepository
	cache   ports.CacheService
	events  ports.EventPublisher
}

// NewRecordService creates a new RecordService.
func NewRecordService(records ports.RecordRepository, cache ports.CacheService, events ports.EventPublisher) *RecordService {
	return &RecordService{records: records, cache: cache, events: events}
}

// Create validates and stores a new record, then publishes a record event.
func (s *RecordService) Create(ctx context.Context, rec *domain.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	s.publish(ctx, "created", rec)
	return nil
}

// Update validates and stores changes to an existing record.
func (s *RecordService) Update(ctx context.Context, rec *domain.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if err := s.records.Update(ctx, rec); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "records:id:"+rec.ID)
	}
	s.publish(ctx, "updated", rec)
	return nil
}

// Delete removes a record.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if err := s.records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "records:id:"+id)
	}
	s.publish(ctx, "deleted", rec)
	return nil
}

// GetByID returns a single record.
func (s *RecordService) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	cacheKey := "records:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rec domain.Record
			if err := json.Unmarshal(data, &rec); err == nil {
				return &rec, nil
			}
		}
	}

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return rec, nil
}

// List returns records, optionally filtered by category.
func (s *RecordService) List(ctx context.Context, category string, limit, offset int) ([]domain.Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.records.List(ctx, category, limit, offset)
}

// FindNearby returns records within radiusMeters of the origin, annotated
// with their distance and ordered nearest first. Candidates come from a
// bounding-box prefilter; exact ranking is done here.
func (s *RecordService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Record, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("records:nearby:%.4f:%.4f:%.0f:%d", lat, lng, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var recs []domain.Record
			if err := json.Unmarshal(data, &recs); err == nil {
				return recs, nil
			}
		}
	}

	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)
	candidates, err := s.records.ListInBounds(ctx, domain.Bounds{
		MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng,
	}, 500)
	if err != nil {
		return nil, fmt.Errorf("nearby candidates: %w", err)
	}

	hits := geospatial.FindNearby(lat, lng, candidates,
		func(r domain.Record) (float64, float64) { return r.Location.Lat, r.Location.Lng },
		radiusMeters, limit)

	recs := make([]domain.Record, 0, len(hits))
	for _, h := range hits {
		r := h.Item
		d := float64(h.DistanceMeters)
		r.Distance = &d
		recs = append(recs, r)
	}

	if s.cache != nil {
		if data, err := json.Marshal(recs); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return recs, nil
}

func (s *RecordService) publish(ctx context.Context, kind string, rec *domain.Record) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishRecordEvent(ctx, &domain.RecordEvent{
		Kind:     kind,
		RecordID: rec.ID,
		Location: rec.Location,
		At:       time.Now(),
	})
}

func validateRecord(rec *domain.Record) error {
	if rec.Title == "" {
		return fmt.Errorf("record title must not be empty")
	}
	if rec.Location.Lat < -90 || rec.Location.Lat > 90 {
		return fmt.Errorf("latitude out of range: %v", rec.Location.Lat)
	}
	if rec.Location.Lng < -180 || rec.Location.Lng > 180 {
		return fmt.Errorf("longitude out of range: %v", rec.Location.Lng)
	}
	return nil
}
