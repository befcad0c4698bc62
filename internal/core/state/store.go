// Package state owns all live trip-planning session state. The store is
// the single source of truth: every mutation goes through Update, which
// notifies subscribers synchronously with a fresh deep copy so they can
// never observe or corrupt a half-applied change.
package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Listener receives a deep copy of the trip state after each update.
// Listeners may keep or mutate the copy freely; it shares nothing with the
// store.
type Listener func(domain.TripState)

type session struct {
	trip       domain.TripState
	lastAccess time.Time
	listeners  map[int]Listener
	nextID     int
}

// Store holds all sessions. All state is in-memory for the lifetime of the
// process; expired sessions are swept by a janitor.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// A non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &session{
		trip: domain.TripState{
			SessionID:  id,
			Waypoints:  []domain.Stop{},
			Navigation: domain.NavigationState{Phase: domain.PhasePlanning},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		lastAccess: now,
		listeners:  make(map[int]Listener),
	}
	return id
}

// Get returns a deep copy of the session's trip state.
func (s *Store) Get(sessionID string) (*domain.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry.lastAccess = s.now()
	return entry.trip.Clone(), nil
}

// Update applies mutate to the session's trip state under the store lock,
// then synchronously notifies every subscriber with a fresh copy.
func (s *Store) Update(sessionID string, mutate func(*domain.TripState)) error {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return ErrSessionNotFound
	}

	mutate(&entry.trip)
	entry.trip.UpdatedAt = s.now()
	entry.lastAccess = entry.trip.UpdatedAt

	listeners := make([]Listener, 0, len(entry.listeners))
	for _, l := range entry.listeners {
		listeners = append(listeners, l)
	}
	snapshot := entry.trip.Clone()
	s.mu.Unlock()

	for _, l := range listeners {
		l(*snapshot.Clone())
	}
	return nil
}

// Subscribe registers a listener for a session's updates and returns an
// unsubscribe func. Unsubscribing twice is a no-op.
func (s *Store) Subscribe(sessionID string, l Listener) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	id := entry.nextID
	entry.nextID++
	entry.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.sessions[sessionID]; ok {
			delete(e.listeners, id)
		}
	}, nil
}

// Delete removes a session. Unknown IDs are a no-op.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// List returns deep copies of all sessions, newest first.
func (s *Store) List() []domain.TripState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TripState, 0, len(s.sessions))
	for _, entry := range s.sessions {
		out = append(out, *entry.trip.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.sessions {
		if entry.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps expired sessions at the given interval until the channel
// is closed.
func (s *Store) Janitor(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-done:
			return
		}
	}
}
