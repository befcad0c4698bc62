package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
)

var (
	// ErrInsufficientInput means the stop list cannot produce a directions
	// request; no upstream request is issued.
	ErrInsufficientInput = errors.New("origin and destination are required")

	// ErrDirectionsUnavailable means no directions provider is configured
	// (missing credentials). The service stays up, planning degrades.
	ErrDirectionsUnavailable = errors.New("directions provider not configured")

	// ErrNoRoute means the provider answered but produced no usable plan.
	ErrNoRoute = errors.New("no route found for the given stops")
)

// PlannerService manages a session's stops and calculates route plans.
// Every stop mutation invalidates the current plan and forces navigation
// back to planning.
type PlannerService struct {
	store      *state.Store
	directions ports.DirectionsProvider
	cache      ports.CacheService
	publisher  ports.EventPublisher
	nav        ports.NavigationInvalidator
	cacheTTL   int
}

// NewPlannerService creates a PlannerService. directions, cache, and
// publisher may be nil; the service degrades accordingly.
func NewPlannerService(
	store *state.Store,
	directions ports.DirectionsProvider,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	nav ports.NavigationInvalidator,
	cacheTTLSeconds int,
) *PlannerService {
	return &PlannerService{
		store:      store,
		directions: directions,
		cache:      cache,
		publisher:  publisher,
		nav:        nav,
		cacheTTL:   cacheTTLSeconds,
	}
}

// SetOrigin replaces the session's origin stop.
func (s *PlannerService) SetOrigin(ctx context.Context, sessionID string, stop domain.Stop) error {
	return s.editStops(ctx, sessionID, func(t *domain.TripState) {
		st := stop.Clone()
		t.Origin = &st
	})
}

// SetDestination replaces the session's destination stop.
func (s *PlannerService) SetDestination(ctx context.Context, sessionID string, stop domain.Stop) error {
	return s.editStops(ctx, sessionID, func(t *domain.TripState) {
		st := stop.Clone()
		t.Destination = &st
	})
}

// AddWaypoint appends a waypoint.
func (s *PlannerService) AddWaypoint(ctx context.Context, sessionID string, stop domain.Stop) error {
	return s.editStops(ctx, sessionID, func(t *domain.TripState) {
		t.Waypoints = append(t.Waypoints, stop.Clone())
	})
}

// RemoveWaypoint removes the waypoint at index.
func (s *PlannerService) RemoveWaypoint(ctx context.Context, sessionID string, index int) error {
	var bad bool
	err := s.editStops(ctx, sessionID, func(t *domain.TripState) {
		if index < 0 || index >= len(t.Waypoints) {
			bad = true
			return
		}
		t.Waypoints = append(t.Waypoints[:index], t.Waypoints[index+1:]...)
	})
	if err != nil {
		return err
	}
	if bad {
		return fmt.Errorf("waypoint index %d out of range", index)
	}
	return nil
}

// MoveWaypoint shifts the waypoint at index one position up (towards the
// origin) or down. Moves past either end are no-ops.
func (s *PlannerService) MoveWaypoint(ctx context.Context, sessionID string, index int, up bool) error {
	var bad bool
	err := s.editStops(ctx, sessionID, func(t *domain.TripState) {
		if index < 0 || index >= len(t.Waypoints) {
			bad = true
			return
		}
		j := index + 1
		if up {
			j = index - 1
		}
		if j < 0 || j >= len(t.Waypoints) {
			return
		}
		t.Waypoints[index], t.Waypoints[j] = t.Waypoints[j], t.Waypoints[index]
	})
	if err != nil {
		return err
	}
	if bad {
		return fmt.Errorf("waypoint index %d out of range", index)
	}
	return nil
}

// Reset clears the session back to an empty planning state.
func (s *PlannerService) Reset(ctx context.Context, sessionID string) error {
	if s.nav != nil {
		s.nav.Invalidate(ctx, sessionID)
	}
	err := s.store.Update(sessionID, func(t *domain.TripState) {
		t.Origin = nil
		t.Destination = nil
		t.Waypoints = []domain.Stop{}
		t.Plan = nil
	})
	if err != nil {
		return err
	}
	if s.publisher != nil {
		_ = s.publisher.PublishMapCommand(ctx, sessionID, domain.MapCommand{Type: domain.MapCommandClearRoute})
	}
	return nil
}

// editStops applies a stop mutation. Any edit discards the plan and exits
// navigation: the plan no longer describes the stops.
func (s *PlannerService) editStops(ctx context.Context, sessionID string, mutate func(*domain.TripState)) error {
	if s.nav != nil {
		s.nav.Invalidate(ctx, sessionID)
	}
	return s.store.Update(sessionID, func(t *domain.TripState) {
		mutate(t)
		t.Plan = nil
	})
}

// CalculateRoute requests directions for each consecutive stop pair
// sequentially, a segment only after its predecessor answered, then builds
// the normalized plan and publishes it atomically. A failure in any segment
// aborts the rest and leaves the session's plan untouched.
func (s *PlannerService) CalculateRoute(ctx context.Context, sessionID string) (*domain.RoutePlan, error) {
	if s.directions == nil {
		return nil, ErrDirectionsUnavailable
	}

	trip, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	stops := trip.Stops()
	if trip.Origin == nil || trip.Destination == nil || len(stops) < 2 {
		return nil, ErrInsufficientInput
	}
	for _, st := range stops {
		if !st.Resolvable() {
			return nil, ErrInsufficientInput
		}
	}

	if s.nav != nil {
		s.nav.Invalidate(ctx, sessionID)
	}

	// Sequential on purpose: later segments only make sense once earlier
	// ones resolved, and one-at-a-time keeps us inside upstream rate
	// limits. Nothing is published until every segment succeeded.
	results := make([]domain.DirectionsResult, 0, len(stops)-1)
	for i := 0; i < len(stops)-1; i++ {
		req := ports.DirectionsRequest{
			Origin:      domain.RefForStop(stops[i]),
			Destination: domain.RefForStop(stops[i+1]),
		}
		res, err := s.routeSegment(ctx, req)
		if err != nil {
			metrics.DirectionsErrors.Inc()
			return nil, fmt.Errorf("directions for segment %d: %w", i, err)
		}
		results = append(results, *res)
	}

	colors := RouteColors(len(results))
	plan := BuildRoutePlan(results, stops, colors)
	if plan == nil {
		return nil, ErrNoRoute
	}

	err = s.store.Update(sessionID, func(t *domain.TripState) {
		t.Plan = plan.Clone()
	})
	if err != nil {
		return nil, err
	}
	metrics.PlansCalculated.Inc()

	if s.publisher != nil {
		s.publishRenderCommand(ctx, sessionID, plan, stops)
	}
	return plan, nil
}

func (s *PlannerService) routeSegment(ctx context.Context, req ports.DirectionsRequest) (*domain.DirectionsResult, error) {
	key := directionsCacheKey(req)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			var res domain.DirectionsResult
			if err := json.Unmarshal(data, &res); err == nil {
				metrics.CacheHits.WithLabelValues("directions").Inc()
				return &res, nil
			}
		} else {
			metrics.CacheMisses.WithLabelValues("directions").Inc()
		}
	}

	res, err := s.directions.Route(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return res, nil
}

func (s *PlannerService) publishRenderCommand(ctx context.Context, sessionID string, plan *domain.RoutePlan, stops []domain.Stop) {
	markers := make([]domain.MapMarker, 0, len(stops))
	for i, st := range stops {
		pos := st.Location
		// Prefer the routed endpoint coordinates: free-text stops carry
		// none of their own.
		if i > 0 && i-1 < len(plan.Segments) {
			if legs := plan.Segments[i-1].Legs; len(legs) > 0 && legs[len(legs)-1].DestinationLocation != nil {
				pos = legs[len(legs)-1].DestinationLocation
			}
		} else if i == 0 && len(plan.Segments) > 0 {
			if legs := plan.Segments[0].Legs; len(legs) > 0 && legs[0].OriginLocation != nil {
				pos = legs[0].OriginLocation
			}
		}
		markers = append(markers, domain.MapMarker{
			Label:    MarkerLabel(i, len(stops)),
			Title:    labelForStop(&stops[i], ""),
			Position: pos,
		})
	}

	bounds := plan.Bounds()
	cmd := domain.MapCommand{
		Type:    domain.MapCommandRenderRoute,
		Plan:    plan.Clone(),
		Markers: markers,
	}
	if !bounds.IsZero() {
		cmd.Bounds = &bounds
	}
	if err := s.publisher.PublishMapCommand(ctx, sessionID, cmd); err != nil {
		slog.Warn("publish render command failed", "session", sessionID, "error", err)
	}
}

func directionsCacheKey(req ports.DirectionsRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return "directions:" + hex.EncodeToString(sum[:12])
}
