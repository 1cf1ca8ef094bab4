package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/core/usecases"
	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

// The counters are process globals, so every assertion here is a delta
// around the action under test.

func TestPopup_ExhaustionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(metrics.PopupRetriesExhausted)

	nav := newFakeNav(map[string]string{"highlight": "rec-1", "lat": "1", "lng": "2"})
	surface := &fakeSurface{} // marker never appears
	mock, popups := newPopupFixture(surface, nav)

	popups.Show(highlightReq("rec-1", 1, 2), nil)
	popups.OnMoveSettled()
	mock.Add(5 * time.Second)

	if got := testutil.ToFloat64(metrics.PopupRetriesExhausted) - before; got != 1 {
		t.Errorf("exhaustion counter delta = %v, want 1", got)
	}
}

func TestGeocode_SearchCountsOutcomes(t *testing.T) {
	ok := metrics.GeocodeRequests.WithLabelValues("ok")
	noMatch := metrics.GeocodeRequests.WithLabelValues("no_match")
	failed := metrics.GeocodeRequests.WithLabelValues("error")
	okBefore := testutil.ToFloat64(ok)
	noMatchBefore := testutil.ToFloat64(noMatch)
	failedBefore := testutil.ToFloat64(failed)

	geo := &fakeGeocoder{match: &domain.GeocodeMatch{DisplayName: "Cocoa Beach"}}
	svc := usecases.NewGeocodeService(geo, clock.NewMock())

	_, _ = svc.Search(context.Background(), "cocoa beach")
	geo.match = nil
	_, _ = svc.Search(context.Background(), "nowhere")
	geo.err = errors.New("upstream down")
	_, _ = svc.Search(context.Background(), "anywhere")

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(noMatch) - noMatchBefore; got != 1 {
		t.Errorf("no_match delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRoute_PlanCountsOutcomes(t *testing.T) {
	ok := metrics.RouteRequests.WithLabelValues("ok")
	noRoute := metrics.RouteRequests.WithLabelValues("no_route")
	failed := metrics.RouteRequests.WithLabelValues("error")
	okBefore := testutil.ToFloat64(ok)
	noRouteBefore := testutil.ToFloat64(noRoute)
	failedBefore := testutil.ToFloat64(failed)

	planner := &fakePlanner{route: &domain.WalkingRoute{DistanceMeters: 100}}
	svc := usecases.NewRouteService(planner, newFakeNav(nil), clock.NewMock())
	from := domain.GeoPoint{Lat: 28.40, Lng: -80.60}
	to := domain.GeoPoint{Lat: 28.41, Lng: -80.59}

	_, _ = svc.Plan(context.Background(), from, to, "", "")
	planner.err = ports.ErrNoRoute
	_, _ = svc.Plan(context.Background(), from, to, "", "")
	planner.err = errors.New("upstream down")
	_, _ = svc.Plan(context.Background(), from, to, "", "")

	if got := testutil.ToFloat64(ok) - okBefore; got != 1 {
		t.Errorf("ok delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(noRoute) - noRouteBefore; got != 1 {
		t.Errorf("no_route delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(failed) - failedBefore; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}
