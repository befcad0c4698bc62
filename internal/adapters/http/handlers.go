package http

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/hyunwoojo/gilro/internal/adapters/nats"
	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/core/usecases"
	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
)

// stopRequest is the request body for origin/destination/waypoint edits.
type stopRequest struct {
	Label    string           `json:"label"`
	Address  string           `json:"address"`
	PlaceID  string           `json:"place_id"`
	Location *domain.GeoPoint `json:"location"`
}

func (r stopRequest) toStop() domain.Stop {
	return domain.Stop{
		Label:    strings.TrimSpace(r.Label),
		Address:  strings.TrimSpace(r.Address),
		PlaceID:  r.PlaceID,
		Location: r.Location,
	}
}

// CreateSessionHandler opens a new planning session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := deps.Sessions.Create()
		metrics.Sessions.Set(float64(deps.Sessions.Len()))

		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.Status(201).JSON(trip)
	}
}

// GetSessionHandler returns the full trip state for a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errNotFound(c, "session not found")
		}
		return c.JSON(trip)
	}
}

// ListSessionsHandler returns all live sessions, newest first.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions := deps.Sessions.List()

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(sessions)
		if offset >= total {
			sessions = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			sessions = sessions[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: sessions, Pagination: pg})
	}
}

// DeleteSessionHandler ends a session, stopping any active navigation first.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		deps.Navigation.Invalidate(c.UserContext(), id)
		deps.Sessions.Delete(id)
		metrics.Sessions.Set(float64(deps.Sessions.Len()))
		return c.SendStatus(204)
	}
}

// SetOriginHandler replaces the session's origin stop.
func SetOriginHandler(deps *Dependencies) fiber.Handler {
	return stopEditHandler(deps, func(c *fiber.Ctx, id string, stop domain.Stop) error {
		return deps.Planner.SetOrigin(c.UserContext(), id, stop)
	})
}

// SetDestinationHandler replaces the session's destination stop.
func SetDestinationHandler(deps *Dependencies) fiber.Handler {
	return stopEditHandler(deps, func(c *fiber.Ctx, id string, stop domain.Stop) error {
		return deps.Planner.SetDestination(c.UserContext(), id, stop)
	})
}

// AddWaypointHandler appends a waypoint to the session.
func AddWaypointHandler(deps *Dependencies) fiber.Handler {
	return stopEditHandler(deps, func(c *fiber.Ctx, id string, stop domain.Stop) error {
		return deps.Planner.AddWaypoint(c.UserContext(), id, stop)
	})
}

// stopEditHandler parses a stop body, applies the edit, and returns the
// updated trip state. Every edit discards the current plan.
func stopEditHandler(deps *Dependencies, apply func(*fiber.Ctx, string, domain.Stop) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var req stopRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		stop := req.toStop()
		if !stop.Resolvable() {
			return errBadRequest(c, "a stop needs a label, address, place_id, or location")
		}

		if err := apply(c, id, stop); err != nil {
			return errFromUsecase(c, err)
		}

		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip)
	}
}

// RemoveWaypointHandler removes the waypoint at the given index.
func RemoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		index, err := c.ParamsInt("index")
		if err != nil {
			return errBadRequest(c, "waypoint index must be an integer")
		}

		if err := deps.Planner.RemoveWaypoint(c.UserContext(), id, index); err != nil {
			if errors.Is(err, state.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errBadRequest(c, err.Error())
		}

		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip)
	}
}

// MoveWaypointHandler shifts a waypoint one position up or down.
func MoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		index, err := c.ParamsInt("index")
		if err != nil {
			return errBadRequest(c, "waypoint index must be an integer")
		}

		var req struct {
			Direction string `json:"direction"` // "up" | "down"
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Direction != "up" && req.Direction != "down" {
			return errBadRequest(c, `direction must be "up" or "down"`)
		}

		if err := deps.Planner.MoveWaypoint(c.UserContext(), id, index, req.Direction == "up"); err != nil {
			if errors.Is(err, state.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errBadRequest(c, err.Error())
		}

		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip)
	}
}

// ResetSessionHandler clears the session back to an empty planning state.
func ResetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.Planner.Reset(c.UserContext(), id); err != nil {
			return errFromUsecase(c, err)
		}
		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip)
	}
}

// CalculateRouteHandler requests directions for the session's stops and
// stores the resulting plan.
func CalculateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := deps.Planner.CalculateRoute(c.UserContext(), c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, state.ErrSessionNotFound),
				errors.Is(err, usecases.ErrInsufficientInput),
				errors.Is(err, usecases.ErrNoRoute),
				errors.Is(err, usecases.ErrDirectionsUnavailable):
				return errFromUsecase(c, err)
			default:
				// Anything else is an upstream directions failure.
				return errBadGateway(c, err.Error())
			}
		}
		return c.JSON(plan)
	}
}

// GetRouteHandler returns the session's current plan, if any.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trip, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errNotFound(c, "session not found")
		}
		if trip.Plan == nil {
			return errNotFound(c, "no route calculated for this session")
		}
		return c.JSON(trip.Plan)
	}
}

// StartNavigationHandler transitions the session into navigation. The
// position watch outlives the request, so it runs on the server context.
func StartNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.Navigation.Start(deps.serverCtx(), id); err != nil {
			return errFromUsecase(c, err)
		}
		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip.Navigation)
	}
}

// StopNavigationHandler ends navigation and returns to planning.
func StopNavigationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.Navigation.Stop(c.UserContext(), id); err != nil {
			return errFromUsecase(c, err)
		}
		trip, err := deps.Sessions.Get(id)
		if err != nil {
			return errFromUsecase(c, err)
		}
		return c.JSON(trip.Navigation)
	}
}

// PostPositionHandler accepts a live-position sample over HTTP and feeds it
// into the session's position subject, the same path WebSocket clients use.
func PostPositionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := deps.Sessions.Get(id); err != nil {
			return errNotFound(c, "session not found")
		}

		var pos domain.Position
		if err := c.BodyParser(&pos); err != nil {
			return errBadRequest(c, "invalid position body")
		}
		if pos.Lat < -90 || pos.Lat > 90 || pos.Lng < -180 || pos.Lng > 180 {
			return errBadRequest(c, "position out of range")
		}

		data, err := json.Marshal(pos)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if err := deps.NATS.Publish(natsadapter.PositionSubject(id), data); err != nil {
			return errInternal(c, err.Error())
		}
		return c.SendStatus(202)
	}
}

// GetProgressHandler recomputes progress on demand from the last known
// position.
func GetProgressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Navigation.Progress(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromUsecase(c, err)
		}
		if snap == nil {
			return errNotFound(c, "no progress available yet")
		}
		return c.JSON(snap)
	}
}

// HighlightSegmentHandler highlights a segment on the map with focus, as a
// direct user action.
func HighlightSegmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var req struct {
			SegmentIndex int `json:"segment_index"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if err := deps.Navigation.HighlightSegment(c.UserContext(), id, req.SegmentIndex); err != nil {
			if errors.Is(err, state.ErrSessionNotFound) {
				return errNotFound(c, "session not found")
			}
			return errBadRequest(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// AutocompleteHandler returns place predictions for a partial query.
func AutocompleteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return errServiceUnavailable(c, "place provider not configured")
		}

		sessionID := c.Query("session")
		if sessionID == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		places, err := deps.Places.Autocomplete(c.UserContext(), sessionID, query)
		if err != nil {
			return errBadGateway(c, err.Error())
		}
		return c.JSON(places)
	}
}

// ResolvePlaceHandler resolves a selected prediction into coordinates.
func ResolvePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return errServiceUnavailable(c, "place provider not configured")
		}

		sessionID := c.Query("session")
		if sessionID == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		placeID := c.Params("place_id")
		if placeID == "" {
			return errBadRequest(c, "place_id is required")
		}

		place, err := deps.Places.ResolvePlace(c.UserContext(), sessionID, placeID)
		if err != nil {
			return errBadGateway(c, err.Error())
		}
		return c.JSON(place)
	}
}

// RecentTripsHandler lists recently archived navigation runs.
func RecentTripsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Archive == nil {
			return errServiceUnavailable(c, "trip archive not configured")
		}

		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		records, err := deps.Archive.Recent(c.UserContext(), limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(records)
	}
}
