package ports

import (
	"context"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// DirectionsRequest asks the upstream mapping service for one segment
// between two consecutive stops.
type DirectionsRequest struct {
	Origin      domain.PlaceRef
	Destination domain.PlaceRef
	// TravelMode defaults to transit; transit requests are restricted to
	// bus and subway sub-modes by the provider.
	TravelMode string
}

// DirectionsProvider requests candidate routes from the external mapping
// service. Any non-success upstream status surfaces as a single descriptive
// error.
type DirectionsProvider interface {
	Route(ctx context.Context, req DirectionsRequest) (*domain.DirectionsResult, error)
}

// PlaceProvider resolves partial text input into concrete places. Session
// tokens pair the keystroke queries with the final selection; the provider
// rotates the token after each completed selection.
type PlaceProvider interface {
	Autocomplete(ctx context.Context, sessionID, input string) ([]domain.Place, error)
	ResolvePlace(ctx context.Context, sessionID, placeID string) (*domain.Place, error)
}

// CancelFunc tears down a position watch. It must be safe to call more than
// once and when nothing is active.
type CancelFunc func()

// PositionSource is a cancellable subscription to live-position samples for
// one session. At most one watch per session is active at a time; starting
// a new watch cancels the previous one. Watch-level failures are reported
// through onError exactly once per failure.
type PositionSource interface {
	Watch(ctx context.Context, sessionID string, onPosition func(domain.Position), onError func(error)) (CancelFunc, error)
}

// EventPublisher pushes navigation output to the rendering collaborators:
// progress snapshots, toast announcements, and map commands.
type EventPublisher interface {
	PublishProgress(ctx context.Context, sessionID string, snap *domain.ProgressSnapshot) error
	PublishAnnouncement(ctx context.Context, sessionID string, a domain.Announcement) error
	PublishMapCommand(ctx context.Context, sessionID string, cmd domain.MapCommand) error
}

// CacheService provides read-through caching with TTLs.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// NavigationInvalidator forces navigation back to planning when the
// underlying route becomes stale. The planner calls it on every stop edit
// and before each recalculation.
type NavigationInvalidator interface {
	Invalidate(ctx context.Context, sessionID string)
}
