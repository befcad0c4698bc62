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

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hyunwoojo/gilro/internal/adapters/google"
	"github.com/hyunwoojo/gilro/internal/adapters/http"
	natsadapter "github.com/hyunwoojo/gilro/internal/adapters/nats"
	"github.com/hyunwoojo/gilro/internal/adapters/postgres"
	"github.com/hyunwoojo/gilro/internal/adapters/valkey"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/core/usecases"
	"github.com/hyunwoojo/gilro/internal/pkg/config"
	"github.com/hyunwoojo/gilro/internal/pkg/logging"
	"github.com/hyunwoojo/gilro/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("gilro-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("gilro-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// NATS carries position samples in and navigation events out. Without
	// it navigation cannot run, so a missing broker is fatal.
	natsConn, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer natsConn.Drain()

	publisher := natsadapter.NewPublisherWithConn(natsConn)
	positions := natsadapter.NewPositionSource(natsConn,
		time.Duration(cfg.Navigation.PositionMaxAgeSecs)*time.Second,
		time.Duration(cfg.Navigation.WatchTimeoutSecs)*time.Second,
	)

	// Cache (directions responses + autocomplete session tokens)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, running without cache", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Trip archive (optional)
	var db *postgres.DB
	var archive ports.TripArchive
	if cfg.Database.Enabled() {
		db, err = postgres.New(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		archive = postgres.NewTripArchive(db)
	} else {
		slog.Info("trip archive disabled, no database configured")
	}

	// Directions/places provider. Degrades to nil without an API key; the
	// planning endpoints answer with a visible error instead of the service
	// refusing to boot.
	var directions ports.DirectionsProvider
	var places ports.PlaceProvider
	if cfg.Google.APIKey != "" {
		client := google.NewClient(cfg.Google, cacheOrNil(cache))
		directions = client
		places = client
	} else {
		slog.Warn("no google api key configured, route planning disabled")
	}

	// Session store with TTL sweeping
	store := state.NewStore(time.Duration(cfg.Session.TTLMinutes) * time.Minute)
	janitorDone := make(chan struct{})
	defer close(janitorDone)
	go store.Janitor(time.Minute, janitorDone)

	// Use cases
	navSvc := usecases.NewNavigationService(store, positions, publisher, archive)
	navSvc.SetAnnounceThresholds(
		cfg.Navigation.AnnounceDistanceMeters,
		time.Duration(cfg.Navigation.AnnounceCooldownSecs)*time.Second,
	)
	plannerSvc := usecases.NewPlannerService(store, directions, cacheOrNil(cache), publisher, navSvc, cfg.Session.DirectionsCacheTTL)

	deps := &http.Dependencies{
		Sessions:   store,
		Planner:    plannerSvc,
		Navigation: navSvc,
		Places:     places,
		Archive:    archive,
		NATS:       natsConn,
		DB:         db,
		Cache:      cache,
		ServerCtx:  ctx,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Gilro API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
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

// cacheOrNil avoids handing a typed-nil *valkey.Cache to an interface field.
func cacheOrNil(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}
