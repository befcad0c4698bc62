package google

// Wire types for the Directions and Places web services. Only the fields
// the normalizer consumes are decoded.

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type textValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type timeText struct {
	Text string `json:"text"`
}

type namedStop struct {
	Name string `json:"name"`
}

type transitLine struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

type transitDetails struct {
	Line          *transitLine `json:"line"`
	DepartureStop *namedStop   `json:"departure_stop"`
	ArrivalStop   *namedStop   `json:"arrival_stop"`
	NumStops      int          `json:"num_stops"`
	DepartureTime *timeText    `json:"departure_time"`
	ArrivalTime   *timeText    `json:"arrival_time"`
}

type step struct {
	TravelMode       string          `json:"travel_mode"`
	HTMLInstructions string          `json:"html_instructions"`
	TransitDetails   *transitDetails `json:"transit_details"`
}

type leg struct {
	StartAddress  string     `json:"start_address"`
	EndAddress    string     `json:"end_address"`
	StartLocation *latLng    `json:"start_location"`
	EndLocation   *latLng    `json:"end_location"`
	Distance      *textValue `json:"distance"`
	Duration      *textValue `json:"duration"`
	ArrivalTime   *timeText  `json:"arrival_time"`
	Steps         []step     `json:"steps"`
}

type route struct {
	Legs []leg `json:"legs"`
}

type directionsResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Routes       []route `json:"routes"`
}

type autocompletePrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
	StructuredFormatting struct {
		MainText string `json:"main_text"`
	} `json:"structured_formatting"`
}

type autocompleteResponse struct {
	Status       string                   `json:"status"`
	ErrorMessage string                   `json:"error_message"`
	Predictions  []autocompletePrediction `json:"predictions"`
}

type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         *struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}
