package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/pkg/config"
)

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ int) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cache ports.CacheService) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.GoogleConfig{
		APIKey:   "test-key",
		Language: "ko",
		Region:   "KR",
		Country:  "kr",
	}, cache)
	c.baseURL = srv.URL
	return c
}

func TestRouteMapsDirectionsPayload(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [{
					"start_address": "서울역",
					"end_address": "시청역",
					"start_location": {"lat": 37.5546, "lng": 126.9706},
					"end_location": {"lat": 37.5657, "lng": 126.9769},
					"distance": {"text": "1.4 km", "value": 1400},
					"duration": {"text": "8분", "value": 480},
					"arrival_time": {"text": "오전 9:41"},
					"steps": [{
						"travel_mode": "TRANSIT",
						"html_instructions": "지하철 탑승",
						"transit_details": {
							"line": {"name": "1호선", "short_name": "1"},
							"departure_stop": {"name": "서울역"},
							"arrival_stop": {"name": "시청역"},
							"num_stops": 1,
							"departure_time": {"text": "오전 9:33"},
							"arrival_time": {"text": "오전 9:41"}
						}
					}]
				}]
			}]
		}`))
	}, nil)

	result, err := c.Route(context.Background(), ports.DirectionsRequest{
		Origin:      domain.PlaceRef{Address: "서울역"},
		Destination: domain.PlaceRef{PlaceID: "ChIJ123"},
	})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}

	if gotQuery["mode"][0] != "transit" {
		t.Errorf("expected transit mode, got %q", gotQuery["mode"][0])
	}
	if gotQuery["transit_mode"][0] != "bus|subway" {
		t.Errorf("expected bus|subway sub-modes, got %q", gotQuery["transit_mode"][0])
	}
	if gotQuery["origin"][0] != "서울역" {
		t.Errorf("expected address origin, got %q", gotQuery["origin"][0])
	}
	if gotQuery["destination"][0] != "place_id:ChIJ123" {
		t.Errorf("expected place ID destination, got %q", gotQuery["destination"][0])
	}

	if len(result.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(result.Routes))
	}
	route := result.Routes[0]
	if route.ArrivalTime == nil || route.ArrivalTime.Text != "오전 9:41" {
		t.Errorf("arrival time not mapped: %+v", route.ArrivalTime)
	}
	if len(route.Legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(route.Legs))
	}
	leg := route.Legs[0]
	if leg.Distance == nil || leg.Distance.Value != 1400 {
		t.Errorf("distance not mapped: %+v", leg.Distance)
	}
	if leg.StartLocation == nil || leg.StartLocation.Lat != 37.5546 {
		t.Errorf("start location not mapped: %+v", leg.StartLocation)
	}
	if len(leg.Steps) != 1 || leg.Steps[0].Transit == nil {
		t.Fatalf("transit step not mapped: %+v", leg.Steps)
	}
	transit := leg.Steps[0].Transit
	if transit.Line == nil || transit.Line.ShortName != "1" {
		t.Errorf("transit line not mapped: %+v", transit.Line)
	}
	if transit.NumStops != 1 {
		t.Errorf("expected 1 stop, got %d", transit.NumStops)
	}
}

func TestRouteCoordinateOriginWinsOverPlaceID(t *testing.T) {
	var origin string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		origin = r.URL.Query().Get("origin")
		w.Write([]byte(`{"status": "OK", "routes": []}`))
	}, nil)

	_, err := c.Route(context.Background(), ports.DirectionsRequest{
		Origin: domain.PlaceRef{
			Location: &domain.GeoPoint{Lat: 37.5, Lng: 127.0},
			PlaceID:  "ChIJ123",
			Address:  "서울역",
		},
		Destination: domain.PlaceRef{Address: "시청역"},
	})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}
	if origin != "37.5,127" {
		t.Errorf("expected coordinate origin, got %q", origin)
	}
}

func TestRouteUpstreamStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "error_message": "quota exceeded"}`))
	}, nil)

	_, err := c.Route(context.Background(), ports.DirectionsRequest{
		Origin:      domain.PlaceRef{Address: "a"},
		Destination: domain.PlaceRef{Address: "b"},
	})
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}
}

func TestRouteZeroResultsIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}, nil)

	result, err := c.Route(context.Background(), ports.DirectionsRequest{
		Origin:      domain.PlaceRef{Address: "a"},
		Destination: domain.PlaceRef{Address: "b"},
	})
	if err != nil {
		t.Fatalf("ZERO_RESULTS should map to an empty result, got error: %v", err)
	}
	if len(result.Routes) != 0 {
		t.Errorf("expected no routes, got %d", len(result.Routes))
	}
}

func TestRouteRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "OK", "routes": []}`))
	}, nil)

	_, err := c.Route(context.Background(), ports.DirectionsRequest{
		Origin:      domain.PlaceRef{Address: "a"},
		Destination: domain.PlaceRef{Address: "b"},
	})
	if err != nil {
		t.Fatalf("Route returned error: %v", err)
	}

	var span sdktrace.ReadOnlySpan
	for _, s := range rec.Ended() {
		if s.Name() == "google.directions" {
			span = s
		}
	}
	if span == nil {
		t.Fatal("no span recorded around the directions request")
	}
	status := ""
	for _, kv := range span.Attributes() {
		if string(kv.Key) == "directions.status" {
			status = kv.Value.AsString()
		}
	}
	if status != "OK" {
		t.Errorf("directions.status attribute = %q, want OK", status)
	}
}

func TestRouteWithoutAPIKey(t *testing.T) {
	c := NewClient(config.GoogleConfig{}, nil)
	if _, err := c.Route(context.Background(), ports.DirectionsRequest{}); err == nil {
		t.Fatal("expected error when no API key is configured")
	}
}

func TestAutocompleteSessionTokenReusedThenRotated(t *testing.T) {
	cache := newFakeCache()
	var tokens []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.URL.Query().Get("sessiontoken"))
		if r.URL.Path == detailsPath {
			w.Write([]byte(`{"status": "OK", "result": {
				"place_id": "ChIJ123",
				"name": "서울역",
				"formatted_address": "서울특별시 용산구",
				"geometry": {"location": {"lat": 37.5546, "lng": 126.9706}}
			}}`))
			return
		}
		w.Write([]byte(`{"status": "OK", "predictions": [{
			"place_id": "ChIJ123",
			"description": "서울역, 서울특별시",
			"structured_formatting": {"main_text": "서울역"}
		}]}`))
	}, cache)

	ctx := context.Background()

	places, err := c.Autocomplete(ctx, "session-1", "서울")
	if err != nil {
		t.Fatalf("Autocomplete returned error: %v", err)
	}
	if len(places) != 1 || places[0].Name != "서울역" {
		t.Fatalf("unexpected predictions: %+v", places)
	}

	if _, err := c.Autocomplete(ctx, "session-1", "서울역"); err != nil {
		t.Fatalf("Autocomplete returned error: %v", err)
	}
	if tokens[0] != tokens[1] {
		t.Errorf("expected token reuse across keystrokes, got %q then %q", tokens[0], tokens[1])
	}

	place, err := c.ResolvePlace(ctx, "session-1", "ChIJ123")
	if err != nil {
		t.Fatalf("ResolvePlace returned error: %v", err)
	}
	if place.Location == nil || place.Location.Lat != 37.5546 {
		t.Errorf("location not mapped: %+v", place.Location)
	}
	if tokens[2] != tokens[0] {
		t.Errorf("selection should use the same session token, got %q", tokens[2])
	}

	if _, err := c.Autocomplete(ctx, "session-1", "시청"); err != nil {
		t.Fatalf("Autocomplete returned error: %v", err)
	}
	if tokens[3] == tokens[0] {
		t.Error("expected a fresh token after a completed selection")
	}
}

func TestAutocompleteEmptyInput(t *testing.T) {
	c := NewClient(config.GoogleConfig{APIKey: "k"}, nil)
	places, err := c.Autocomplete(context.Background(), "s", "")
	if err != nil {
		t.Fatalf("empty input should short-circuit, got error: %v", err)
	}
	if places != nil {
		t.Errorf("expected nil predictions, got %+v", places)
	}
}
