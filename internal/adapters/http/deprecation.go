package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with a sunset date.
// Paths are matched exactly; every deprecated route here is an old alias
// of a renamed endpoint, so no pattern matching is needed.
type DeprecatedRoute struct {
	Path        string    // exact request path
	SunsetDate  time.Time // date when the endpoint will be removed
	Alternative string    // recommended replacement endpoint (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to
// deprecated endpoints so clients can migrate before removal.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if c.Path() != d.Path {
				continue
			}

			// RFC 8594 Deprecation header
			c.Set("Deprecation", "true")

			// RFC 8594 Sunset header (HTTP-Date format)
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

			// RFC 8288 Link header pointing at the replacement
			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}

			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

			break
		}

		return c.Next()
	}
}
