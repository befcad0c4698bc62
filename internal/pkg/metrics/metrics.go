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
		Namespace: "gilro",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gilro",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Planning metrics
	DirectionsRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "planner",
		Name:      "directions_requests_total",
		Help:      "Total directions requests issued upstream",
	})

	DirectionsErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "planner",
		Name:      "directions_errors_total",
		Help:      "Total failed directions request sequences",
	})

	PlansCalculated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "planner",
		Name:      "plans_calculated_total",
		Help:      "Total route plans successfully published",
	})

	// Navigation metrics
	NavigationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "navigation",
		Name:      "starts_total",
		Help:      "Total navigation runs started",
	})

	PositionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "navigation",
		Name:      "positions_processed_total",
		Help:      "Total live-position samples fed through the progress engine",
	})

	Announcements = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "navigation",
		Name:      "announcements_total",
		Help:      "Total next-maneuver announcements emitted",
	})

	WatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "navigation",
		Name:      "watch_errors_total",
		Help:      "Total position-watch failures",
	})

	ActiveWatches = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gilro",
		Subsystem: "navigation",
		Name:      "active_watches",
		Help:      "Current number of active position watches",
	})

	// Shared infrastructure
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gilro",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gilro",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gilro",
		Subsystem: "sessions",
		Name:      "live",
		Help:      "Current number of live planning sessions",
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
