package http

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Endpoints polled by probes and dashboards; logging every hit drowns out
// the interesting traffic.
var quietPaths = map[string]bool{
	"/metrics":   true,
	"/v1/health": true,
}

// AccessLogMiddleware logs HTTP requests with structured slog output:
// method, path, status, latency, bytes sent, request ID, and error (if any).
// Probe endpoints are logged only when they fail.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()
		requestID := c.Get(fiber.HeaderXRequestID, "unknown")

		err := c.Next()

		status := c.Response().StatusCode()
		if quietPaths[path] && status < 400 && err == nil {
			return err
		}

		latency := time.Since(start)
		bytesOut := len(c.Response().Body())

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.String("latency", latency.String()),
			slog.Int("bytes_out", bytesOut),
			slog.String("request_id", requestID),
		}

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		}

		slog.LogAttrs(c.Context(), level, fmt.Sprintf("%s %s", method, path), attrs...)

		return err
	}
}
