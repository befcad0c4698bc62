package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/pkg/geospatial"
	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
)

// ErrNoPlan means navigation was started without a calculated route.
var ErrNoPlan = errors.New("no route plan to navigate")

// Defaults for the next-maneuver announcement debounce.
const (
	DefaultAnnounceDistanceMeters = 30.0
	DefaultAnnounceCooldown       = 15 * time.Second
)

// run is the per-session runtime a navigation holds while active: the
// watch cancel handle plus the announcement/highlight debounce memory.
type run struct {
	cancel          ports.CancelFunc
	lastHighlighted int // -1 until the first highlight
	lastAnnounce    time.Time
	startedAt       time.Time
}

// NavigationService owns the planning/navigating state machine. All
// transitions (user start/stop, watch failures, route invalidation from
// stop edits) funnel through here so the rules live in one place.
type NavigationService struct {
	store     *state.Store
	positions ports.PositionSource
	publisher ports.EventPublisher
	archive   ports.TripArchive

	announceDistance float64
	announceCooldown time.Duration
	now              func() time.Time

	mu   sync.Mutex
	runs map[string]*run
}

// NewNavigationService creates a NavigationService. archive may be nil.
func NewNavigationService(
	store *state.Store,
	positions ports.PositionSource,
	publisher ports.EventPublisher,
	archive ports.TripArchive,
) *NavigationService {
	return &NavigationService{
		store:            store,
		positions:        positions,
		publisher:        publisher,
		archive:          archive,
		announceDistance: DefaultAnnounceDistanceMeters,
		announceCooldown: DefaultAnnounceCooldown,
		now:              time.Now,
		runs:             make(map[string]*run),
	}
}

// SetAnnounceThresholds overrides the announcement debounce parameters.
func (s *NavigationService) SetAnnounceThresholds(distanceMeters float64, cooldown time.Duration) {
	s.announceDistance = distanceMeters
	s.announceCooldown = cooldown
}

// Start transitions a session from planning to navigating. It requires a
// calculated plan, clears any stale position or error, and starts exactly
// one live-position watch (cancelling any leftover one first).
func (s *NavigationService) Start(ctx context.Context, sessionID string) error {
	trip, err := s.store.Get(sessionID)
	if err != nil {
		return err
	}
	if trip.Plan == nil {
		return ErrNoPlan
	}

	s.cancelWatch(sessionID)

	startedAt := s.now()
	err = s.store.Update(sessionID, func(t *domain.TripState) {
		t.Navigation = domain.NavigationState{
			Phase:     domain.PhaseNavigating,
			StartedAt: &startedAt,
		}
	})
	if err != nil {
		return err
	}

	cancel, err := s.positions.Watch(ctx, sessionID,
		func(pos domain.Position) { s.onPosition(ctx, sessionID, pos) },
		func(watchErr error) { s.onWatchError(ctx, sessionID, watchErr) },
	)
	if err != nil {
		// Roll back: a navigation without positions is not a navigation.
		_ = s.store.Update(sessionID, func(t *domain.TripState) {
			t.Navigation = domain.NavigationState{
				Phase: domain.PhasePlanning,
				Error: err.Error(),
			}
		})
		return fmt.Errorf("start position watch: %w", err)
	}

	s.mu.Lock()
	s.runs[sessionID] = &run{cancel: cancel, lastHighlighted: -1, startedAt: startedAt}
	s.mu.Unlock()

	metrics.NavigationsStarted.Inc()
	metrics.ActiveWatches.Inc()
	s.announce(ctx, sessionID, "내비게이션을 시작합니다.", "info")
	return nil
}

// Stop ends navigation on user request. Idempotent: stopping an inactive
// session only normalizes its state.
func (s *NavigationService) Stop(ctx context.Context, sessionID string) error {
	s.finishRun(ctx, sessionID, true)

	err := s.store.Update(sessionID, func(t *domain.TripState) {
		t.Navigation.Phase = domain.PhasePlanning
		t.Navigation.CurrentPosition = nil
		t.Navigation.LastUpdatedAt = nil
	})
	if err != nil {
		return err
	}
	s.announce(ctx, sessionID, "내비게이션을 종료했습니다.", "info")
	return nil
}

// Invalidate implements ports.NavigationInvalidator: the route changed
// underneath an active navigation, so the run ends and all navigation
// state resets, including the announcement cooldown.
func (s *NavigationService) Invalidate(ctx context.Context, sessionID string) {
	s.finishRun(ctx, sessionID, false)
	_ = s.store.Update(sessionID, func(t *domain.TripState) {
		t.Navigation = domain.NavigationState{Phase: domain.PhasePlanning}
	})
}

// Progress computes an on-demand snapshot from the session's current
// state, without side effects.
func (s *NavigationService) Progress(ctx context.Context, sessionID string) (*domain.ProgressSnapshot, error) {
	trip, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return ComputeProgress(trip.Plan, trip.Navigation.CurrentPosition), nil
}

// HighlightSegment re-issues a highlight with viewport focus, for explicit
// user-initiated highlight clicks. Automatic highlighting during
// navigation never focuses.
func (s *NavigationService) HighlightSegment(ctx context.Context, sessionID string, index int) error {
	trip, err := s.store.Get(sessionID)
	if err != nil {
		return err
	}
	if trip.Plan == nil || index < 0 || index >= len(trip.Plan.Segments) {
		return fmt.Errorf("segment index %d out of range", index)
	}

	s.mu.Lock()
	if r, ok := s.runs[sessionID]; ok {
		r.lastHighlighted = index
	}
	s.mu.Unlock()

	return s.publisher.PublishMapCommand(ctx, sessionID, domain.MapCommand{
		Type:         domain.MapCommandHighlight,
		SegmentIndex: &index,
		Focus:        true,
	})
}

// onPosition handles one live sample: store update, full progress
// recomputation, then the highlight and announcement side effects.
func (s *NavigationService) onPosition(ctx context.Context, sessionID string, pos domain.Position) {
	updatedAt := s.now()
	stored := false
	err := s.store.Update(sessionID, func(t *domain.TripState) {
		// A sample can arrive after the watch was cancelled; a session
		// already back in planning keeps its cleared position.
		if !t.Navigation.Active() {
			return
		}
		p := pos
		t.Navigation.CurrentPosition = &p
		t.Navigation.LastUpdatedAt = &updatedAt
		t.Navigation.Error = ""
		stored = true
	})
	if err != nil || !stored {
		return
	}
	metrics.PositionsProcessed.Inc()

	trip, err := s.store.Get(sessionID)
	if err != nil || !trip.Navigation.Active() {
		return
	}

	_ = s.publisher.PublishMapCommand(ctx, sessionID, domain.MapCommand{
		Type:      domain.MapCommandUserPosition,
		Position:  &pos,
		CenterMap: true,
		Bounds:    userViewport(pos),
	})

	snap := ComputeProgress(trip.Plan, &pos)
	if snap == nil {
		return
	}
	_ = s.publisher.PublishProgress(ctx, sessionID, snap)

	s.mu.Lock()
	r, ok := s.runs[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}
	highlightChanged := snap.ClosestSegmentIndex != r.lastHighlighted
	if highlightChanged {
		r.lastHighlighted = snap.ClosestSegmentIndex
	}
	shouldAnnounce := snap.DistanceToLegMeters <= s.announceDistance &&
		s.now().Sub(r.lastAnnounce) >= s.announceCooldown
	if shouldAnnounce {
		r.lastAnnounce = s.now()
	}
	s.mu.Unlock()

	if highlightChanged {
		idx := snap.ClosestSegmentIndex
		// No viewport refocus here; focus is reserved for explicit
		// highlight clicks.
		_ = s.publisher.PublishMapCommand(ctx, sessionID, domain.MapCommand{
			Type:         domain.MapCommandHighlight,
			SegmentIndex: &idx,
		})
	}

	if shouldAnnounce {
		if leg := legAt(trip.Plan, snap.ClosestSegmentIndex, snap.ClosestLegIndex); leg != nil {
			msg := "다음 안내: " + leg.ModeLabel
			if leg.Details != "" {
				msg += " · " + leg.Details
			}
			s.announce(ctx, sessionID, msg, "info")
			metrics.Announcements.Inc()
		}
	}
}

// onWatchError handles a watch-level failure: the error lands in the
// session state and navigation drops back to planning.
func (s *NavigationService) onWatchError(ctx context.Context, sessionID string, watchErr error) {
	slog.Warn("position watch failed", "session", sessionID, "error", watchErr)
	s.finishRun(ctx, sessionID, false)

	_ = s.store.Update(sessionID, func(t *domain.TripState) {
		t.Navigation.Phase = domain.PhasePlanning
		t.Navigation.Error = watchErr.Error()
		t.Navigation.CurrentPosition = nil
		t.Navigation.LastUpdatedAt = nil
	})
	s.announce(ctx, sessionID, "위치 정보를 가져올 수 없습니다.", "warning")
	metrics.WatchErrors.Inc()
}

// finishRun cancels the watch (idempotent) and, when the run was active
// and an archive is configured, records the completed trip.
func (s *NavigationService) finishRun(ctx context.Context, sessionID string, archive bool) {
	s.mu.Lock()
	r, ok := s.runs[sessionID]
	delete(s.runs, sessionID)
	s.mu.Unlock()

	if !ok {
		return
	}
	r.cancel()
	metrics.ActiveWatches.Dec()

	if !archive || s.archive == nil {
		return
	}
	trip, err := s.store.Get(sessionID)
	if err != nil || trip.Plan == nil {
		return
	}
	rec := ports.TripRecord{
		SessionID:       sessionID,
		Waypoints:       len(trip.Waypoints),
		DistanceMeters:  trip.Plan.TotalDistanceMeters,
		DurationSeconds: trip.Plan.TotalDurationSeconds,
		StartedAt:       r.startedAt,
		EndedAt:         s.now(),
		FinalProgress:   ComputeProgress(trip.Plan, trip.Navigation.CurrentPosition),
	}
	if trip.Origin != nil {
		rec.OriginLabel = trip.Origin.Label
	}
	if trip.Destination != nil {
		rec.DestLabel = trip.Destination.Label
	}
	if err := s.archive.Record(ctx, rec); err != nil {
		slog.Warn("archive trip failed", "session", sessionID, "error", err)
	}
}

func (s *NavigationService) cancelWatch(sessionID string) {
	s.mu.Lock()
	r, ok := s.runs[sessionID]
	delete(s.runs, sessionID)
	s.mu.Unlock()
	if ok {
		r.cancel()
		metrics.ActiveWatches.Dec()
	}
}

func (s *NavigationService) announce(ctx context.Context, sessionID, message, typ string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.PublishAnnouncement(ctx, sessionID, domain.Announcement{
		Message: message,
		Type:    typ,
		SentAt:  s.now(),
	})
}

// userViewportRadiusMeters is the half-extent of the viewport hint sent
// with each user-position command. A poor GPS fix widens it so the
// uncertainty circle stays on screen.
const userViewportRadiusMeters = 250.0

func userViewport(pos domain.Position) *domain.Bounds {
	radius := userViewportRadiusMeters
	if pos.Accuracy*2 > radius {
		radius = pos.Accuracy * 2
	}
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(pos.Lat, pos.Lng, radius)
	var b domain.Bounds
	b.Extend(domain.GeoPoint{Lat: minLat, Lng: minLng})
	b.Extend(domain.GeoPoint{Lat: maxLat, Lng: maxLng})
	return &b
}

func legAt(plan *domain.RoutePlan, segIdx, legIdx int) *domain.Leg {
	if plan == nil || segIdx < 0 || segIdx >= len(plan.Segments) {
		return nil
	}
	seg := plan.Segments[segIdx]
	if legIdx < 0 || legIdx >= len(seg.Legs) {
		return nil
	}
	return &seg.Legs[legIdx]
}
