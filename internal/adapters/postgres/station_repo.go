package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// StationRepo implements ports.StationRepository with pgx.
type StationRepo struct {
	db *DB
}

// NewStationRepo creates a new StationRepo.
func NewStationRepo(db *DB) *StationRepo {
	return &StationRepo{db: db}
}

// UpsertBatch inserts many stations using pgx.Batch.
func (r *StationRepo) UpsertBatch(ctx context.Context, stations []domain.Station) error {
	batch := &pgx.Batch{}
	for _, s := range stations {
		batch.Queue(`
			INSERT INTO stations (station_id, name, operator, location)
			VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography)
			ON CONFLICT (station_id) DO UPDATE
			SET name = EXCLUDED.name, operator = EXCLUDED.operator,
			    location = EXCLUDED.location
		`, s.StationID, s.Name, s.Operator, s.Location.Lng, s.Location.Lat)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range stations {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a station by UUID.
func (r *StationRepo) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	var s domain.Station
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, station_id, name, COALESCE(operator, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       created_at
		FROM stations WHERE id = $1
	`, id).Scan(
		&s.ID, &s.StationID, &s.Name, &s.Operator,
		&s.Location.Lat, &s.Location.Lng, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListInBounds returns stations inside a bounding box.
func (r *StationRepo) ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Station, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, station_id, name, COALESCE(operator, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       created_at
		FROM stations
		WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		LIMIT $5
	`, b.MinLng, b.MinLat, b.MaxLng, b.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []domain.Station
	for rows.Next() {
		var s domain.Station
		if err := rows.Scan(
			&s.ID, &s.StationID, &s.Name, &s.Operator,
			&s.Location.Lat, &s.Location.Lng, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}
