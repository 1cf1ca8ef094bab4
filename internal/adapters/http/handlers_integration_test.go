//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/padwatch/padwatch/internal/adapters/http"
	"github.com/padwatch/padwatch/internal/adapters/postgres"
	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/usecases"
	"github.com/padwatch/padwatch/internal/pkg/config"
)

// setupTestDB connects to the test database and returns a clean DB instance.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("padwatch-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	db := &postgres.DB{Pool: pool}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return db
}

// setupTestDeps creates dependencies with real DB and repos, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	recordRepo := postgres.NewRecordRepo(db)
	stationRepo := postgres.NewStationRepo(db)

	return &http.Dependencies{
		Records:  usecases.NewRecordService(recordRepo, nil, nil),
		Stations: usecases.NewStationService(stationRepo, nil),
		Geocoder: &mockGeocoder{},
		Planner:  &mockPlanner{},
		DB:       db,
	}
}

// seedTestRecord inserts a record near Jetty Park and returns its UUID.
func seedTestRecord(t *testing.T, db *postgres.DB, title string, lat, lng float64) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO records (user_id, title, category, location)
		VALUES ('integration-test', $1, 'viewing-spot', ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		RETURNING id
	`, title, lng, lat).Scan(&id); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return id
}

// seedTestStation inserts a station and returns its UUID.
func seedTestStation(t *testing.T, db *postgres.DB, stationID, name string, lat, lng float64) string {
	ctx := context.Background()
	var id string
	if err := db.Pool.QueryRow(ctx, `
		INSERT INTO stations (station_id, name, operator, location)
		VALUES ($1, $2, 'Space Coast Area Transit', ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		ON CONFLICT (station_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, stationID, name, lng, lat).Scan(&id); err != nil {
		t.Fatalf("seed station: %v", err)
	}
	return id
}

// TestRecordCRUD_Integration exercises the full record lifecycle against a
// real database.
func TestRecordCRUD_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	// Create
	body := `{"user_id":"integration-test","title":"Integration spot","lat":28.407,"lng":-80.593}`
	req := httptest.NewRequest("POST", "/v1/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated record id")
	}

	// Get
	req = httptest.NewRequest("GET", "/v1/records/"+created.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 on get, got %d", resp.StatusCode)
	}

	// Update
	body = `{"user_id":"integration-test","title":"Integration spot v2","lat":28.407,"lng":-80.593}`
	req = httptest.NewRequest("PUT", "/v1/records/"+created.ID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}

	// Delete
	req = httptest.NewRequest("DELETE", "/v1/records/"+created.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204 on delete, got %d", resp.StatusCode)
	}

	// Gone
	req = httptest.NewRequest("GET", "/v1/records/"+created.ID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

// TestNearbyRecords_Integration tests the geospatial query against a real
// PostGIS database.
func TestNearbyRecords_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	// Jetty Park: 28.407, -80.593
	seedTestRecord(t, db, "Jetty Park pier", 28.407, -80.593)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/records/nearby?lat=28.407&lng=-80.593&radius=5000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var recs []domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected at least 1 nearby record, got 0")
	}
	if recs[0].Distance == nil {
		t.Error("expected distance annotation on nearby record")
	}
}

// TestNearbyStations_Integration tests station lookup against a real database.
func TestNearbyStations_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	seedTestStation(t, db, "test-station-1", "Titusville Transfer", 28.61, -80.81)

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/stations/nearby?lat=28.61&lng=-80.81&radius=5000", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stations []domain.Station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(stations) == 0 {
		t.Error("expected at least 1 nearby station, got 0")
	}
}
