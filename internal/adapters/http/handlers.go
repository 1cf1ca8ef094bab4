package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/padwatch/padwatch/internal/adapters/postgres"
	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
)

// MapStats holds row counts for the map data tables.
type MapStats struct {
	Records    int    `json:"records"`
	Stations   int    `json:"stations"`
	LastRecord string `json:"last_record,omitempty"`
}

// MapStatsHandler returns row counts from the map data tables.
func MapStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats MapStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM records),
				(SELECT count(*) FROM stations),
				COALESCE((SELECT max(created_at)::text FROM records), '')
		`)
		if err := row.Scan(&stats.Records, &stats.Stations, &stats.LastRecord); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// recordRequest is the JSON body for creating or updating a record.
type recordRequest struct {
	UserID      string         `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Lat         float64        `json:"lat"`
	Lng         float64        `json:"lng"`
	Metadata    map[string]any `json:"metadata"`
}

func (r recordRequest) toDomain(id string) *domain.Record {
	return &domain.Record{
		ID:          id,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Location:    domain.GeoPoint{Lat: r.Lat, Lng: r.Lng},
		Metadata:    r.Metadata,
	}
}

// CreateRecordHandler stores a new record.
func CreateRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req recordRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		rec := req.toDomain("")
		if err := deps.Records.Create(c.Context(), rec); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// UpdateRecordHandler rewrites an existing record.
func UpdateRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "record id is required")
		}

		var req recordRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		rec := req.toDomain(id)
		if err := deps.Records.Update(c.Context(), rec); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return errNotFound(c, "record not found")
			}
			return errBadRequest(c, err.Error())
		}
		return c.JSON(rec)
	}
}

// DeleteRecordHandler removes a record.
func DeleteRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "record id is required")
		}
		if err := deps.Records.Delete(c.Context(), id); err != nil {
			if errors.Is(err, postgres.ErrNotFound) {
				return errNotFound(c, "record not found")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetRecordHandler returns a single record by ID.
func GetRecordHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "record id is required")
		}
		rec, err := deps.Records.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "record not found")
		}
		return c.JSON(rec)
	}
}

// ListRecordsHandler returns records, newest first, with pagination.
func ListRecordsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		category := c.Query("category")
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		recs, err := deps.Records.List(c.Context(), category, limit, offset)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: offset + len(recs)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: recs, Pagination: pg})
	}
}

// NearbyRecordsHandler returns records within a radius of a point,
// nearest first.
func NearbyRecordsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 2000)
		limit := c.QueryInt("limit", 20)

		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		if limit <= 0 || limit > 50 {
			limit = 20
		}

		recs, err := deps.Records.FindNearby(c.Context(), lat, lng, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(recs)
	}
}

// NearbyStationsHandler returns stations within a radius of a point.
func NearbyStationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 2000)
		limit := c.QueryInt("limit", 10)

		if lat == 0 || lng == 0 {
			return errBadRequest(c, "lat and lng are required")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		if limit <= 0 || limit > 50 {
			limit = 10
		}

		stations, err := deps.Stations.FindNearby(c.Context(), lat, lng, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stations)
	}
}

// GetStationHandler returns a single station by ID.
func GetStationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "station id is required")
		}
		station, err := deps.Stations.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "station not found")
		}
		return c.JSON(station)
	}
}

// GeocodeHandler resolves a free-text place query to its best match.
// A query with no match returns 200 with a null body rather than an
// error, mirroring the geocoder port contract.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		match, err := deps.Geocoder.Geocode(c.Context(), query)
		if err != nil {
			return errInternal(c, "place search is unavailable")
		}

		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{"match": match})
	}
}

// WalkingRouteHandler plans a pedestrian route between two points.
func WalkingRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fromLat := c.QueryFloat("from_lat", 0)
		fromLng := c.QueryFloat("from_lng", 0)
		toLat := c.QueryFloat("to_lat", 0)
		toLng := c.QueryFloat("to_lng", 0)

		if fromLat == 0 || fromLng == 0 || toLat == 0 || toLng == 0 {
			return errBadRequest(c, "from_lat, from_lng, to_lat and to_lng are required")
		}

		route, err := deps.Planner.WalkingRoute(c.Context(),
			domain.GeoPoint{Lat: fromLat, Lng: fromLng},
			domain.GeoPoint{Lat: toLat, Lng: toLng})
		if err != nil {
			if errors.Is(err, ports.ErrNoRoute) {
				return errNotFound(c, "no walking route found between these points")
			}
			return errInternal(c, "route planning is unavailable")
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(route)
	}
}
