package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/hyunwoojo/gilro/internal/adapters/postgres"
	"github.com/hyunwoojo/gilro/internal/adapters/valkey"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions   *state.Store
	Planner    *usecases.PlannerService
	Navigation *usecases.NavigationService
	Places     ports.PlaceProvider
	Archive    ports.TripArchive
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache

	// ServerCtx outlives individual requests. Long-running work spawned by
	// a handler, like a position watch, runs on it.
	ServerCtx context.Context
}

func (d *Dependencies) serverCtx() context.Context {
	if d.ServerCtx != nil {
		return d.ServerCtx
	}
	return context.Background()
}
