package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "padwatch",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "padwatch",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Map interaction metrics
	GesturesClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "map",
		Name:      "gestures_classified_total",
		Help:      "Input sequences classified by the gesture disambiguator",
	}, []string{"intent"})

	ContextMenusOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "map",
		Name:      "context_menus_opened_total",
		Help:      "Context menus opened, by trigger",
	}, []string{"trigger"})

	SyntheticClicksSwallowed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "map",
		Name:      "synthetic_clicks_swallowed_total",
		Help:      "Follow-up clicks suppressed after a long-press promotion",
	})

	ActiveMapSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "padwatch",
		Subsystem: "map",
		Name:      "active_sessions",
		Help:      "Current number of connected map sessions",
	})

	PopupRetriesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "map",
		Name:      "popup_retries_exhausted_total",
		Help:      "Highlight popups abandoned after the retry budget ran out",
	})

	// External service metrics
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "external",
		Name:      "geocode_requests_total",
		Help:      "Geocoding lookups, by outcome",
	}, []string{"status"})

	RouteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "external",
		Name:      "route_requests_total",
		Help:      "Walking-route computations, by outcome",
	}, []string{"status"})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padwatch",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "padwatch",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "padwatch",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "padwatch",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
// The interface keeps pgxpool out of this package's imports.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
