package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/padwatch/padwatch/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Sunset headers for the pre-rename search endpoint
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/search",
			SunsetDate:  time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/geocode",
		},
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/records/nearby", timeout.NewWithContext(NearbyRecordsHandler(deps), 15*time.Second))
	v1.Get("/records/:id", timeout.NewWithContext(GetRecordHandler(deps), 15*time.Second))
	v1.Get("/records", timeout.NewWithContext(ListRecordsHandler(deps), 15*time.Second))
	v1.Post("/records", timeout.NewWithContext(CreateRecordHandler(deps), 15*time.Second))
	v1.Put("/records/:id", timeout.NewWithContext(UpdateRecordHandler(deps), 15*time.Second))
	v1.Delete("/records/:id", timeout.NewWithContext(DeleteRecordHandler(deps), 15*time.Second))
	v1.Get("/stations/nearby", timeout.NewWithContext(NearbyStationsHandler(deps), 15*time.Second))
	v1.Get("/stations/:id", timeout.NewWithContext(GetStationHandler(deps), 15*time.Second))
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), 15*time.Second))
	v1.Get("/search", timeout.NewWithContext(GeocodeHandler(deps), 15*time.Second)) // deprecated alias
	v1.Get("/routes/walking", timeout.NewWithContext(WalkingRouteHandler(deps), 15*time.Second))
	v1.Get("/stats", timeout.NewWithContext(MapStatsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket upgrade gate
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Interactive map session (one interaction core per connection)
	app.Get("/ws/map", websocket.New(MapSessionHandler(deps)))

	// Live record feed. The broker may have been down at startup; the map
	// works without the feed, so serve a plain 503 instead of upgrading a
	// connection whose subscriptions can never be established.
	if deps.NATS != nil {
		app.Get("/ws/live", websocket.New(LiveFeedHandler(deps.NATS)))
	} else {
		app.Get("/ws/live", func(c *fiber.Ctx) error {
			return errServiceUnavailable(c, "live feed is unavailable")
		})
	}
}
