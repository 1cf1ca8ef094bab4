package ports

import (
	"context"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// RecordRepository persists launch-viewing records.
type RecordRepository interface {
	Create(ctx context.Context, rec *domain.Record) error
	Update(ctx context.Context, rec *domain.Record) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	List(ctx context.Context, category string, limit, offset int) ([]domain.Record, error)
	// ListInBounds returns records inside a bounding box, the candidate set
	// for exact proximity ranking.
	ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Record, error)
}

// StationRepository persists transit stations.
type StationRepository interface {
	UpsertBatch(ctx context.Context, stations []domain.Station) error
	GetByID(ctx context.Context, id string) (*domain.Station, error)
	ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error)
}
