package http

import (
	"github.com/benbjohnson/clock"
	"github.com/nats-io/nats.go"

	"github.com/padwatch/padwatch/internal/adapters/postgres"
	"github.com/padwatch/padwatch/internal/adapters/valkey"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Records  *usecases.RecordService
	Stations *usecases.StationService
	Geocoder ports.Geocoder
	Planner  ports.RoutePlanner

	// Session wires the per-connection interaction core.
	Session   usecases.SessionConfig
	Snapshots func(userKey string) ports.SnapshotStore
	Clock     clock.Clock

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
