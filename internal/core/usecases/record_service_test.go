package usecases_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/usecases"
)

// metersNorth shifts a latitude north by a ground distance. Along a
// meridian the great-circle distance is exactly R times the latitude
// delta, so integer-meter expectations hold.
func metersNorth(lat, meters float64) float64 {
	return lat + (meters/6371000.0)*180/math.Pi
}

func newRecord(id string, lat, lng float64) *domain.Record {
	return &domain.Record{
		ID:       id,
		UserID:   "u1",
		Title:    "Falcon 9 from the causeway",
		Category: "viewing",
		Location: domain.GeoPoint{Lat: lat, Lng: lng},
	}
}

func TestRecord_CreatePublishesEvent(t *testing.T) {
	repo := newFakeRecordRepo()
	events := &fakePublisher{}
	svc := usecases.NewRecordService(repo, nil, events)

	rec := newRecord("r1", 28.5, -80.6)
	if err := svc.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := repo.byID["r1"]; !ok {
		t.Fatalf("record not persisted")
	}
	if len(events.events) != 1 || events.events[0].Kind != "created" {
		t.Fatalf("events = %+v, want one created event", events.events)
	}
	if events.events[0].Location != rec.Location {
		t.Errorf("event location = %+v", events.events[0].Location)
	}
}

func TestRecord_ValidationRejectsBadInput(t *testing.T) {
	repo := newFakeRecordRepo()
	svc := usecases.NewRecordService(repo, nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		rec  *domain.Record
	}{
		{"empty title", &domain.Record{Location: domain.GeoPoint{Lat: 10, Lng: 10}}},
		{"latitude too big", newRecord("r1", 91, 0)},
		{"latitude too small", newRecord("r1", -90.1, 0)},
		{"longitude too big", newRecord("r1", 0, 180.5)},
		{"longitude too small", newRecord("r1", 0, -181)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Create(ctx, tc.rec); err == nil {
				t.Errorf("Create accepted %s", tc.name)
			}
		})
	}
	if len(repo.byID) != 0 {
		t.Errorf("invalid records persisted: %v", repo.byID)
	}
}

func TestRecord_UpdateInvalidatesCache(t *testing.T) {
	repo := newFakeRecordRepo()
	cache := newFakeCache()
	svc := usecases.NewRecordService(repo, cache, &fakePublisher{})
	ctx := context.Background()

	rec := newRecord("r1", 28.5, -80.6)
	if err := svc.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetByID(ctx, "r1"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if cache.sets == 0 {
		t.Fatalf("expected read-through cache fill")
	}

	rec.Title = "Starship from Playalinda"
	if err := svc.Update(ctx, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	found := false
	for _, k := range cache.deletes {
		if k == "records:id:r1" {
			found = true
		}
	}
	if !found {
		t.Errorf("cache entry not invalidated on update, deletes = %v", cache.deletes)
	}
}

func TestRecord_GetByIDServesFromCache(t *testing.T) {
	repo := newFakeRecordRepo()
	cache := newFakeCache()
	cached := newRecord("r1", 28.5, -80.6)
	data, _ := json.Marshal(cached)
	cache.data["records:id:r1"] = data

	svc := usecases.NewRecordService(repo, cache, nil)
	got, err := svc.GetByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != cached.Title {
		t.Errorf("got %+v", got)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
}

func TestRecord_DeletePublishesLastLocation(t *testing.T) {
	repo := newFakeRecordRepo()
	events := &fakePublisher{}
	svc := usecases.NewRecordService(repo, nil, events)
	ctx := context.Background()

	if err := svc.Create(ctx, newRecord("r1", 28.5, -80.6)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "r1" {
		t.Fatalf("deleted = %v", repo.deleted)
	}
	last := events.events[len(events.events)-1]
	if last.Kind != "deleted" || last.Location.Lat != 28.5 {
		t.Errorf("delete event = %+v", last)
	}
}

func TestRecord_FindNearbyRanksAndAnnotates(t *testing.T) {
	repo := newFakeRecordRepo()
	repo.inBounds = []domain.Record{
		*newRecord("far", metersNorth(28.5, 1999), -80.6),
		*newRecord("near", metersNorth(28.5, 500), -80.6),
		*newRecord("origin", 28.5, -80.6),
		*newRecord("outside", metersNorth(28.5, 5000), -80.6),
	}
	svc := usecases.NewRecordService(repo, nil, nil)

	recs, err := svc.FindNearby(context.Background(), 28.5, -80.6, 2000, 10)
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3 (outside radius excluded)", len(recs))
	}
	wantIDs := []string{"origin", "near", "far"}
	wantDist := []float64{0, 500, 1999}
	for i, r := range recs {
		if r.ID != wantIDs[i] {
			t.Errorf("recs[%d].ID = %s, want %s", i, r.ID, wantIDs[i])
		}
		if r.Distance == nil || *r.Distance != wantDist[i] {
			t.Errorf("recs[%d].Distance = %v, want %v", i, r.Distance, wantDist[i])
		}
	}
}

func TestRecord_FindNearbyCachesResult(t *testing.T) {
	repo := newFakeRecordRepo()
	repo.inBounds = []domain.Record{*newRecord("r1", 28.5, -80.6)}
	cache := newFakeCache()
	svc := usecases.NewRecordService(repo, cache, nil)
	ctx := context.Background()

	if _, err := svc.FindNearby(ctx, 28.5, -80.6, 1000, 10); err != nil {
		t.Fatalf("first FindNearby: %v", err)
	}
	repo.inBounds = nil // second call must not reach the repository
	recs, err := svc.FindNearby(ctx, 28.5, -80.6, 1000, 10)
	if err != nil {
		t.Fatalf("second FindNearby: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r1" {
		t.Fatalf("cached recs = %+v", recs)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
}
