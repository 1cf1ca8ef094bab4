package http

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware computes a weak ETag from the response body and returns
// 304 Not Modified if the client already has it. Map clients re-fetch the
// same record lists on every pan; most of those round-trips collapse to an
// empty 304.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		// Only successful GET responses with a body are worth tagging.
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != 200 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		// Weak tag: SHA-256 of the body, truncated
		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`

		c.Set("ETag", etag)

		if c.Get("If-None-Match") == etag {
			c.Status(304)
			c.Response().ResetBody()
			return nil
		}

		return nil
	}
}
