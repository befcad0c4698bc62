package domain

// Raw directions types, shaped after the upstream directions payload. The
// plan builder consumes these; adapters map their wire formats onto them.

// TravelMode values as reported in step data.
const (
	TravelModeWalking = "WALKING"
	TravelModeTransit = "TRANSIT"
)

// TextValue is a display string paired with its exact numeric value
// (meters for distances, seconds for durations).
type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// TimeText is a schedule time as display text.
type TimeText struct {
	Text string `json:"text"`
}

// TransitStop is a named boarding or alighting stop.
type TransitStop struct {
	Name string `json:"name"`
}

// TransitLine identifies a transit line by its short and full names.
type TransitLine struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// TransitDetails carries the transit-specific maneuver data of a step.
type TransitDetails struct {
	Line          *TransitLine `json:"line,omitempty"`
	DepartureStop *TransitStop `json:"departure_stop,omitempty"`
	ArrivalStop   *TransitStop `json:"arrival_stop,omitempty"`
	NumStops      int          `json:"num_stops,omitempty"`
	DepartureTime *TimeText    `json:"departure_time,omitempty"`
	ArrivalTime   *TimeText    `json:"arrival_time,omitempty"`
}

// DirectionsStep is a single step-level maneuver within a leg.
type DirectionsStep struct {
	TravelMode   string          `json:"travel_mode"`
	Instructions string          `json:"instructions,omitempty"`
	Transit      *TransitDetails `json:"transit,omitempty"`
}

// DirectionsLeg is one leg of a candidate route as returned upstream.
type DirectionsLeg struct {
	StartAddress  string           `json:"start_address,omitempty"`
	EndAddress    string           `json:"end_address,omitempty"`
	StartLocation *GeoPoint        `json:"start_location,omitempty"`
	EndLocation   *GeoPoint        `json:"end_location,omitempty"`
	Distance      *TextValue       `json:"distance,omitempty"`
	Duration      *TextValue       `json:"duration,omitempty"`
	Steps         []DirectionsStep `json:"steps,omitempty"`
}

// DirectionsRoute is one candidate route.
type DirectionsRoute struct {
	Legs        []DirectionsLeg `json:"legs"`
	ArrivalTime *TimeText       `json:"arrival_time,omitempty"`
}

// DirectionsResult is the response for a single origin/destination pair.
// Only the first route is used when building a plan; the rest are
// alternatives the service ignores.
type DirectionsResult struct {
	Routes []DirectionsRoute `json:"routes"`
}

// PlaceRef is the directions input for one endpoint: coordinates win over a
// place ID, which wins over free text.
type PlaceRef struct {
	Location *GeoPoint `json:"location,omitempty"`
	PlaceID  string    `json:"place_id,omitempty"`
	Address  string    `json:"address,omitempty"`
}

// RefForStop derives the directions input from a stop.
func RefForStop(s Stop) PlaceRef {
	ref := PlaceRef{Location: s.Location, PlaceID: s.PlaceID, Address: s.Address}
	if ref.Address == "" {
		ref.Address = s.Label
	}
	return ref
}

// Place is a resolved autocomplete selection.
type Place struct {
	PlaceID  string    `json:"place_id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Location *GeoPoint `json:"location,omitempty"`
}
