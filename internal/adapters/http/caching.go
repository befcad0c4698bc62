package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Session state is live and must never be cached by
// intermediaries; only the stable surfaces get public cache headers.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Only set on GET requests
		if c.Method() != "GET" {
			return err
		}

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10" // Very short for system checks

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/places/autocomplete"):
			ttl = "private, max-age=0" // Keystroke queries, never shared

		case strings.HasPrefix(path, "/v1/places/"):
			ttl = "public, max-age=3600" // Resolved places are stable

		case strings.HasPrefix(path, "/v1/trips/recent"):
			ttl = "private, max-age=30"

		case strings.HasPrefix(path, "/v1/sessions"):
			ttl = "no-store" // Live state: progress, positions, plans
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
