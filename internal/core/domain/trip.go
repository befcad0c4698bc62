package domain

// Stop is a user-specified location: origin, destination, or waypoint.
// Order among waypoints is significant and user-reorderable.
type Stop struct {
	Label    string    `json:"label"`
	Address  string    `json:"address,omitempty"`
	PlaceID  string    `json:"place_id,omitempty"`
	Location *GeoPoint `json:"location,omitempty"`
}

// Resolvable reports whether the stop carries enough data to be used as a
// directions endpoint: coordinates, a place ID, or at least free text.
func (s Stop) Resolvable() bool {
	return s.Location != nil || s.PlaceID != "" || s.Address != "" || s.Label != ""
}

// Clone returns a deep copy of the stop.
func (s Stop) Clone() Stop {
	out := s
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	return out
}

// Leg is one atomic travel instruction within a segment, e.g. one walk or
// one transit ride. Legs are immutable once derived from a directions
// response.
type Leg struct {
	Origin              string    `json:"origin,omitempty"`
	Destination         string    `json:"destination,omitempty"`
	OriginLocation      *GeoPoint `json:"origin_location,omitempty"`
	DestinationLocation *GeoPoint `json:"destination_location,omitempty"`
	DurationText        string    `json:"duration_text"`
	DurationSeconds     int       `json:"duration_seconds"`
	DistanceText        string    `json:"distance_text"`
	DistanceMeters      int       `json:"distance_meters"`
	ModeLabel           string    `json:"mode_label"`
	Details             string    `json:"details,omitempty"`
}

// Clone returns a deep copy of the leg.
func (l Leg) Clone() Leg {
	out := l
	if l.OriginLocation != nil {
		p := *l.OriginLocation
		out.OriginLocation = &p
	}
	if l.DestinationLocation != nil {
		p := *l.DestinationLocation
		out.DestinationLocation = &p
	}
	return out
}

// Segment is the travel between two consecutive stops: an ordered sequence
// of legs plus aggregates. DistanceMeters always equals the sum of the leg
// distances.
type Segment struct {
	Color           string `json:"color"`
	FromLabel       string `json:"from_label"`
	ToLabel         string `json:"to_label"`
	DurationText    string `json:"duration_text"`
	DistanceText    string `json:"distance_text"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Legs            []Leg  `json:"legs"`
}

// Clone returns a deep copy of the segment.
func (s Segment) Clone() Segment {
	out := s
	out.Legs = make([]Leg, len(s.Legs))
	for i, l := range s.Legs {
		out.Legs[i] = l.Clone()
	}
	return out
}

// RoutePlan is the full normalized multi-segment trip. It is built
// atomically from a complete set of per-segment directions responses and
// replaced wholesale on every recalculation, never partially mutated.
type RoutePlan struct {
	TotalDurationSeconds int       `json:"total_duration_seconds"`
	TotalDistanceMeters  int       `json:"total_distance_meters"`
	TotalDurationText    string    `json:"total_duration_text"`
	TotalDistanceText    string    `json:"total_distance_text"`
	ArrivalTimeText      string    `json:"arrival_time_text,omitempty"`
	Segments             []Segment `json:"segments"`
	Legs                 []Leg     `json:"legs"`
}

// Clone returns a deep copy of the plan.
func (p *RoutePlan) Clone() *RoutePlan {
	if p == nil {
		return nil
	}
	out := *p
	out.Segments = make([]Segment, len(p.Segments))
	for i, s := range p.Segments {
		out.Segments[i] = s.Clone()
	}
	out.Legs = make([]Leg, len(p.Legs))
	for i, l := range p.Legs {
		out.Legs[i] = l.Clone()
	}
	return &out
}

// Bounds returns a bounding box over all leg endpoints with known
// coordinates.
func (p *RoutePlan) Bounds() Bounds {
	var b Bounds
	if p == nil {
		return b
	}
	for _, leg := range p.Legs {
		if leg.OriginLocation != nil {
			b.Extend(*leg.OriginLocation)
		}
		if leg.DestinationLocation != nil {
			b.Extend(*leg.DestinationLocation)
		}
	}
	return b
}
