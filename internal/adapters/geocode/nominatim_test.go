package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/padwatch/padwatch/internal/adapters/geocode"
)

func newTestClient(srv *httptest.Server) *geocode.Client {
	return geocode.New(geocode.Config{
		BaseURL:       srv.URL,
		UserAgent:     "padwatch-test/1.0",
		RatePerSecond: 1000, // don't throttle tests
	})
}

func TestGeocode_ParsesStringCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "cape canaveral" {
			t.Errorf("expected query to be forwarded, got %q", got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("expected format=json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"lat": "28.3922610",
			"lon": "-80.6077230",
			"display_name": "Cape Canaveral, Brevard County, Florida",
			"boundingbox": ["28.3092", "28.4724", "-80.6326", "-80.5665"]
		}]`))
	}))
	defer srv.Close()

	match, err := newTestClient(srv).Geocode(context.Background(), "cape canaveral")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Location.Lat != 28.3922610 {
		t.Errorf("expected lat 28.3922610, got %v", match.Location.Lat)
	}
	if match.Location.Lng != -80.6077230 {
		t.Errorf("expected lng -80.6077230, got %v", match.Location.Lng)
	}
	if match.DisplayName != "Cape Canaveral, Brevard County, Florida" {
		t.Errorf("unexpected display name: %q", match.DisplayName)
	}
	if match.Bounds == nil {
		t.Fatal("expected bounds from boundingbox")
	}
	// boundingbox order is minLat, maxLat, minLng, maxLng
	if match.Bounds.MinLat != 28.3092 || match.Bounds.MaxLat != 28.4724 {
		t.Errorf("unexpected lat bounds: %+v", match.Bounds)
	}
	if match.Bounds.MinLng != -80.6326 || match.Bounds.MaxLng != -80.5665 {
		t.Errorf("unexpected lng bounds: %+v", match.Bounds)
	}
}

func TestGeocode_EmptyResultIsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	match, err := newTestClient(srv).Geocode(context.Background(), "zzzzzz")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if match != nil {
		t.Errorf("expected nil match for empty result, got %+v", match)
	}
}

func TestGeocode_UpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Geocode(context.Background(), "titusville")
	if err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestGeocode_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).Geocode(context.Background(), "x"); err != nil {
		t.Fatalf("geocode: %v", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	if gotUA != "padwatch-test/1.0" {
		t.Errorf("expected identifying User-Agent, got %q", gotUA)
	}
}

func TestGeocode_MangledCoordinatesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "not-a-number", "lon": "-80.6", "display_name": "x"}]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Geocode(context.Background(), "x")
	if err == nil {
		t.Fatal("expected parse error for mangled lat")
	}
}
