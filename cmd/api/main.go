package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/padwatch/padwatch/internal/adapters/geocode"
	"github.com/padwatch/padwatch/internal/adapters/http"
	natsadapter "github.com/padwatch/padwatch/internal/adapters/nats"
	"github.com/padwatch/padwatch/internal/adapters/postgres"
	"github.com/padwatch/padwatch/internal/adapters/routing"
	"github.com/padwatch/padwatch/internal/adapters/valkey"
	"github.com/padwatch/padwatch/internal/core/domain"
	"github.com/padwatch/padwatch/internal/core/ports"
	"github.com/padwatch/padwatch/internal/core/usecases"
	"github.com/padwatch/padwatch/internal/pkg/config"
	"github.com/padwatch/padwatch/internal/pkg/logging"
	"github.com/padwatch/padwatch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("padwatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("padwatch-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				_ = shutdown(context.Background())
			}()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache; also backs per-user view snapshots, so it is required
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	// NATS; records still work without it, events are just not published
	var events ports.EventPublisher
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = publisher
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// External services
	geocoder := geocode.New(geocode.Config{
		BaseURL:       cfg.Geocoder.BaseURL,
		UserAgent:     cfg.Geocoder.UserAgent,
		Timeout:       time.Duration(cfg.Geocoder.TimeoutSeconds) * time.Second,
		RatePerSecond: cfg.Geocoder.RatePerSecond,
	})
	planner := routing.New(cfg.Routing.BaseURL, time.Duration(cfg.Routing.TimeoutSeconds)*time.Second)

	// Repos
	recordRepo := postgres.NewRecordRepo(db)
	stationRepo := postgres.NewStationRepo(db)

	// Use cases
	recordSvc := usecases.NewRecordService(recordRepo, cache, events)
	stationSvc := usecases.NewStationService(stationRepo, cache)

	deps := &http.Dependencies{
		Records:  recordSvc,
		Stations: stationSvc,
		Geocoder: geocoder,
		Planner:  planner,
		Session: usecases.SessionConfig{
			Gesture: usecases.GestureConfig{
				LongPress:      time.Duration(cfg.Map.LongPressMS) * time.Millisecond,
				SuppressWindow: time.Duration(cfg.Map.SuppressWindowMS) * time.Millisecond,
				OriginSlackPx:  cfg.Map.OriginSlackPx,
			},
			Popup: usecases.PopupConfig{
				CloseZoom:      cfg.Map.CloseZoom,
				HighlightTTL:   time.Duration(cfg.Map.HighlightMS) * time.Millisecond,
				RetryBase:      time.Duration(cfg.Map.PopupRetryBaseMS) * time.Millisecond,
				MaxRetries:     cfg.Map.PopupMaxRetries,
				MoveFallback:   time.Duration(cfg.Map.MoveFallbackMS) * time.Millisecond,
				CoordTolerance: cfg.Map.CoordTolerance,
			},
			DefaultView: domain.ViewState{
				Center: domain.GeoPoint{Lat: cfg.Map.DefaultLat, Lng: cfg.Map.DefaultLng},
				Zoom:   cfg.Map.DefaultZoom,
			},
		},
		Snapshots: func(userKey string) ports.SnapshotStore {
			return valkey.NewSnapshotStore(cache.Client(), userKey)
		},
		Clock: clock.New(),
		NATS:  natsConn,
		DB:    db,
		Cache: cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "PadWatch API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.padwatch.app",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
