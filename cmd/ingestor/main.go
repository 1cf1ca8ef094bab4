package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/padwatch/padwatch/internal/adapters/postgres"
	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/pkg/config"
	"github.com/padwatch/padwatch/internal/pkg/logging"
)

// The ingestor loads transit stations into the map database from a
// GeoJSON FeatureCollection, either a local file or an HTTP URL.
// Typical sources are Overpass API exports of railway=station nodes.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any `json:"properties"`
	Geometry   struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"` // lon, lat
	} `json:"geometry"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ingestor <stations.geojson | https://...>")
	}
	source := os.Args[1]

	cfg, err := config.Load("padwatch-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup("padwatch-ingestor", "info", "text")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	data, err := readSource(ctx, source)
	if err != nil {
		log.Fatalf("read %s: %v", source, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		log.Fatalf("parse geojson: %v", err)
	}

	stations := toStations(fc)
	if len(stations) == 0 {
		log.Fatalf("no point stations found in %s", source)
	}

	repo := postgres.NewStationRepo(db)
	if err := repo.UpsertBatch(ctx, stations); err != nil {
		log.Fatalf("upsert stations: %v", err)
	}

	logger.Info("stations ingested", "source", source, "count", len(stations))
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

func toStations(fc featureCollection) []domain.Station {
	var stations []domain.Station
	for _, f := range fc.Features {
		if f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		id := strProp(f.Properties, "id", "@id", "ref")
		name := strProp(f.Properties, "name")
		if id == "" || name == "" {
			continue
		}
		stations = append(stations, domain.Station{
			StationID: id,
			Name:      name,
			Operator:  strProp(f.Properties, "operator", "network"),
			Location: domain.GeoPoint{
				Lat: f.Geometry.Coordinates[1],
				Lng: f.Geometry.Coordinates[0],
			},
		})
	}
	return stations
}

// strProp returns the first non-empty string property among the keys.
func strProp(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
