package state

import (
	"errors"
	"testing"
	"time"

	"github.com/hyunwoojo/gilro/internal/core/domain"
)

func TestCreateAndGet(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create()

	trip, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if trip.SessionID != id {
		t.Errorf("SessionID = %q, want %q", trip.SessionID, id)
	}
	if trip.Navigation.Phase != domain.PhasePlanning {
		t.Errorf("initial phase = %q, want planning", trip.Navigation.Phase)
	}
	if trip.Waypoints == nil {
		t.Error("waypoints should be an empty slice, not nil")
	}
}

func TestGetUnknownSession(t *testing.T) {
	store := NewStore(time.Hour)
	if _, err := store.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if err := store.Update("missing", func(*domain.TripState) {}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update err = %v, want ErrSessionNotFound", err)
	}
	if _, err := store.Subscribe("missing", func(domain.TripState) {}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Subscribe err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create()
	_ = store.Update(id, func(trip *domain.TripState) {
		trip.Origin = &domain.Stop{Label: "서울역"}
	})

	first, _ := store.Get(id)
	first.Origin.Label = "mutated"
	first.Waypoints = append(first.Waypoints, domain.Stop{Label: "rogue"})

	second, _ := store.Get(id)
	if second.Origin.Label != "서울역" {
		t.Errorf("stored label = %q, caller mutation leaked into the store", second.Origin.Label)
	}
	if len(second.Waypoints) != 0 {
		t.Errorf("waypoints = %+v, caller append leaked into the store", second.Waypoints)
	}
}

func TestUpdateNotifiesListenersWithCopies(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create()

	var seen []domain.TripState
	unsubscribe, err := store.Subscribe(id, func(trip domain.TripState) {
		seen = append(seen, trip)
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	_ = store.Update(id, func(trip *domain.TripState) {
		trip.Origin = &domain.Stop{Label: "서울역"}
	})
	if len(seen) != 1 {
		t.Fatalf("notifications = %d, want 1", len(seen))
	}
	if seen[0].Origin == nil || seen[0].Origin.Label != "서울역" {
		t.Errorf("notified state = %+v", seen[0])
	}

	// The listener's copy is its own.
	seen[0].Origin.Label = "mutated"
	trip, _ := store.Get(id)
	if trip.Origin.Label != "서울역" {
		t.Error("listener mutation leaked into the store")
	}

	unsubscribe()
	unsubscribe() // second call is a no-op

	_ = store.Update(id, func(trip *domain.TripState) {
		trip.Origin = nil
	})
	if len(seen) != 1 {
		t.Errorf("notifications after unsubscribe = %d, want 1", len(seen))
	}
}

func TestDelete(t *testing.T) {
	store := NewStore(time.Hour)
	id := store.Create()

	store.Delete(id)
	store.Delete(id) // unknown IDs are a no-op

	if _, err := store.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore(time.Hour)
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	first := store.Create()
	now = now.Add(time.Minute)
	second := store.Create()

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].SessionID != second || list[1].SessionID != first {
		t.Errorf("order = %q, %q, want newest first", list[0].SessionID, list[1].SessionID)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	store := NewStore(30 * time.Minute)
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	idle := store.Create()
	active := store.Create()

	now = now.Add(29 * time.Minute)
	if _, err := store.Get(active); err != nil { // refreshes lastAccess
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := store.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Error("idle session survived the sweep")
	}
	if _, err := store.Get(active); err != nil {
		t.Errorf("active session swept: %v", err)
	}
}

func TestSweepDisabledWithoutTTL(t *testing.T) {
	store := NewStore(0)
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Create()
	now = now.Add(100 * time.Hour)
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("removed = %d, want sweeping disabled", removed)
	}
}
