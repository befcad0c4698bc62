package domain

import "time"

// Phase is the navigation state machine tag. Every transition goes through
// the navigation service so the "editing stops exits navigation" rule is
// enforced in one place.
type Phase string

const (
	PhasePlanning   Phase = "planning"
	PhaseNavigating Phase = "navigating"
)

// Position is one live-position sample.
type Position struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Heading   float64   `json:"heading,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Point returns the sample's coordinate.
func (p Position) Point() GeoPoint { return GeoPoint{Lat: p.Lat, Lng: p.Lng} }

// NavigationState tracks an active or idle navigation run. It is reset to
// PhasePlanning whenever the route changes or the user stops navigating.
type NavigationState struct {
	Phase           Phase      `json:"phase"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CurrentPosition *Position  `json:"current_position,omitempty"`
	LastUpdatedAt   *time.Time `json:"last_updated_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Active reports whether navigation is running.
func (n NavigationState) Active() bool { return n.Phase == PhaseNavigating }

// Clone returns a deep copy of the navigation state.
func (n NavigationState) Clone() NavigationState {
	out := n
	if n.StartedAt != nil {
		t := *n.StartedAt
		out.StartedAt = &t
	}
	if n.CurrentPosition != nil {
		p := *n.CurrentPosition
		out.CurrentPosition = &p
	}
	if n.LastUpdatedAt != nil {
		t := *n.LastUpdatedAt
		out.LastUpdatedAt = &t
	}
	return out
}

// ProgressSnapshot is the per-update result of matching a live position
// against the route plan. It is ephemeral: recomputed from scratch on every
// sample and never persisted.
type ProgressSnapshot struct {
	ClosestSegmentIndex int     `json:"closest_segment_index"`
	ClosestLegIndex     int     `json:"closest_leg_index"`
	DistanceToLegMeters float64 `json:"distance_to_leg_meters"`
	TravelledMeters     float64 `json:"travelled_meters"`
	RemainingMeters     float64 `json:"remaining_meters"`
	ProgressRatio       float64 `json:"progress_ratio"`
}

// TripState is the full per-session state: the stops, the current plan, and
// the navigation run. It is owned by the state store; readers always get
// deep copies.
type TripState struct {
	SessionID   string          `json:"session_id"`
	Origin      *Stop           `json:"origin,omitempty"`
	Destination *Stop           `json:"destination,omitempty"`
	Waypoints   []Stop          `json:"waypoints"`
	Plan        *RoutePlan      `json:"plan,omitempty"`
	Navigation  NavigationState `json:"navigation"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Stops returns origin, waypoints, and destination in travel order. Nil
// origin/destination entries are omitted.
func (t *TripState) Stops() []Stop {
	out := make([]Stop, 0, len(t.Waypoints)+2)
	if t.Origin != nil {
		out = append(out, *t.Origin)
	}
	out = append(out, t.Waypoints...)
	if t.Destination != nil {
		out = append(out, *t.Destination)
	}
	return out
}

// Clone returns a deep copy of the trip state.
func (t *TripState) Clone() *TripState {
	if t == nil {
		return nil
	}
	out := *t
	if t.Origin != nil {
		s := t.Origin.Clone()
		out.Origin = &s
	}
	if t.Destination != nil {
		s := t.Destination.Clone()
		out.Destination = &s
	}
	out.Waypoints = make([]Stop, len(t.Waypoints))
	for i, w := range t.Waypoints {
		out.Waypoints[i] = w.Clone()
	}
	out.Plan = t.Plan.Clone()
	out.Navigation = t.Navigation.Clone()
	return &out
}

// Announcement is a user-facing notification, e.g. the debounced
// next-maneuver toast.
type Announcement struct {
	Message string    `json:"message"`
	Type    string    `json:"type"` // "info" | "warning"
	SentAt  time.Time `json:"sent_at"`
}

// Map command types consumed by the rendering collaborator.
const (
	MapCommandRenderRoute  = "render_route"
	MapCommandClearRoute   = "clear_route"
	MapCommandHighlight    = "highlight_segment"
	MapCommandUserPosition = "user_position"
)

// MapCommand instructs the map rendering surface. Which fields are set
// depends on Type.
type MapCommand struct {
	Type         string      `json:"type"`
	SegmentIndex *int        `json:"segment_index,omitempty"`
	Focus        bool        `json:"focus,omitempty"`
	CenterMap    bool        `json:"center_map,omitempty"`
	Position     *Position   `json:"position,omitempty"`
	Plan         *RoutePlan  `json:"plan,omitempty"`
	Markers      []MapMarker `json:"markers,omitempty"`
	Bounds       *Bounds     `json:"bounds,omitempty"`
}

// MapMarker is a labeled stop marker ("출발", "경유 N", "도착").
type MapMarker struct {
	Label    string    `json:"label"`
	Title    string    `json:"title,omitempty"`
	Position *GeoPoint `json:"position,omitempty"`
}
