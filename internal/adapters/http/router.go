package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
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

	// Rate limiting: 240 requests per minute per IP. Position samples and
	// autocomplete keystrokes are chatty, so the ceiling sits higher than a
	// plain CRUD API would need.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
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

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Sessions
	v1.Post("/sessions", timeout.NewWithContext(CreateSessionHandler(deps), 15*time.Second))
	v1.Get("/sessions", timeout.NewWithContext(ListSessionsHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetSessionHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id", timeout.NewWithContext(DeleteSessionHandler(deps), 15*time.Second))

	// Trip planning
	v1.Put("/sessions/:id/origin", timeout.NewWithContext(SetOriginHandler(deps), 15*time.Second))
	v1.Put("/sessions/:id/destination", timeout.NewWithContext(SetDestinationHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/waypoints", timeout.NewWithContext(AddWaypointHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id/waypoints/:index", timeout.NewWithContext(RemoveWaypointHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/waypoints/:index/move", timeout.NewWithContext(MoveWaypointHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/reset", timeout.NewWithContext(ResetSessionHandler(deps), 15*time.Second))

	// Route calculation talks to the upstream directions service once per
	// consecutive stop pair, so it gets a longer budget.
	v1.Post("/sessions/:id/route", timeout.NewWithContext(CalculateRouteHandler(deps), 60*time.Second))
	v1.Get("/sessions/:id/route", timeout.NewWithContext(GetRouteHandler(deps), 15*time.Second))

	// Navigation
	v1.Post("/sessions/:id/navigation/start", timeout.NewWithContext(StartNavigationHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/navigation/stop", timeout.NewWithContext(StopNavigationHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/position", timeout.NewWithContext(PostPositionHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/progress", timeout.NewWithContext(GetProgressHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/highlight", timeout.NewWithContext(HighlightSegmentHandler(deps), 15*time.Second))

	// Places
	v1.Get("/places/autocomplete", timeout.NewWithContext(AutocompleteHandler(deps), 15*time.Second))
	v1.Get("/places/:place_id", timeout.NewWithContext(ResolvePlaceHandler(deps), 15*time.Second))

	// Archived trips
	v1.Get("/trips/recent", timeout.NewWithContext(RecentTripsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// WebSocket: one connection per session, validated before upgrade
	app.Use("/ws/:session", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if _, err := deps.Sessions.Get(c.Params("session")); err != nil {
			return errNotFound(c, "session not found")
		}
		return c.Next()
	})
	app.Get("/ws/:session", websocket.New(WebSocketHandler(deps)))
}
