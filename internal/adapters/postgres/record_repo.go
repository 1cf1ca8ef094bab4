package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/padwatch/padwatch/internal/core/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// RecordRepo implements ports.RecordRepository with pgx.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Create inserts a record and fills in the generated id and timestamps.
func (r *RecordRepo) Create(ctx context.Context, rec *domain.Record) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO records (user_id, title, description, category, location, metadata)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography, $7)
		RETURNING id, created_at, updated_at
	`, rec.UserID, rec.Title, rec.Description, rec.Category,
		rec.Location.Lng, rec.Location.Lat, rec.Metadata,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Update rewrites a record's mutable fields.
func (r *RecordRepo) Update(ctx context.Context, rec *domain.Record) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE records
		SET title = $2, description = $3, category = $4,
		    location = ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography,
		    metadata = $7, updated_at = now()
		WHERE id = $1
	`, rec.ID, rec.Title, rec.Description, rec.Category,
		rec.Location.Lng, rec.Location.Lat, rec.Metadata)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a record by id.
func (r *RecordRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a record by UUID.
func (r *RecordRepo) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	var rec domain.Record
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_id, title, COALESCE(description, ''), COALESCE(category, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       COALESCE(metadata, '{}'), created_at, updated_at
		FROM records WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Category,
		&rec.Location.Lat, &rec.Location.Lng,
		&rec.Metadata, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns records ordered newest first, optionally filtered by
// category.
func (r *RecordRepo) List(ctx context.Context, category string, limit, offset int) ([]domain.Record, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, title, COALESCE(description, ''), COALESCE(category, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       COALESCE(metadata, '{}'), created_at, updated_at
		FROM records
		WHERE ($1 = '' OR category = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, category, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListInBounds returns records inside a bounding box, the candidate set
// for exact proximity ranking.
func (r *RecordRepo) ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Record, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, title, COALESCE(description, ''), COALESCE(category, ''),
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lng,
		       COALESCE(metadata, '{}'), created_at, updated_at
		FROM records
		WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		LIMIT $5
	`, b.MinLng, b.MinLat, b.MaxLng, b.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.Record, error) {
	var recs []domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &rec.Category,
			&rec.Location.Lat, &rec.Location.Lng,
			&rec.Metadata, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
