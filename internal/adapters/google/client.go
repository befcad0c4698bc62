package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/pkg/config"
	"github.com/hyunwoojo/gilro/internal/pkg/logging"
	"github.com/hyunwoojo/gilro/internal/pkg/metrics"
	"github.com/hyunwoojo/gilro/internal/pkg/telemetry"
)

var tracer = telemetry.Tracer("gilro/google")

const (
	defaultBaseURL = "https://maps.googleapis.com"

	directionsPath   = "/maps/api/directions/json"
	autocompletePath = "/maps/api/place/autocomplete/json"
	detailsPath      = "/maps/api/place/details/json"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Client talks to the Google Maps web services. A single client serves both
// the directions and places surfaces.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	region     string
	country    string
	cache      ports.CacheService
	logger     *slog.Logger
}

// NewClient builds a directions and places client from the service
// configuration. The HTTP client carries a hard timeout so a stalled
// upstream cannot pin a route calculation.
func NewClient(cfg config.GoogleConfig, cache ports.CacheService) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		region:     cfg.Region,
		country:    cfg.Country,
		cache:      cache,
		logger:     logging.Component("google"),
	}
}

// Route requests transit directions for one origin/destination pair.
// Requests are restricted to bus and subway sub-modes. Any non-OK upstream
// status collapses into a single descriptive error.
func (c *Client) Route(ctx context.Context, req ports.DirectionsRequest) (*domain.DirectionsResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("directions: no API key configured")
	}

	mode := req.TravelMode
	if mode == "" {
		mode = "transit"
	}

	ctx, span := tracer.Start(ctx, "google.directions")
	defer span.End()
	span.SetAttributes(attribute.String("directions.travel_mode", mode))

	q := url.Values{}
	q.Set("origin", placeParam(req.Origin))
	q.Set("destination", placeParam(req.Destination))
	q.Set("mode", mode)
	if mode == "transit" {
		q.Set("transit_mode", "bus|subway")
	}
	q.Set("language", c.language)
	q.Set("region", c.region)
	q.Set("key", c.apiKey)

	metrics.DirectionsRequests.Inc()

	var resp directionsResponse
	if err := c.getJSON(ctx, directionsPath, q, &resp); err != nil {
		metrics.DirectionsErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("directions: %w", err)
	}
	span.SetAttributes(attribute.String("directions.status", resp.Status))
	if resp.Status != statusOK && resp.Status != statusZeroResults {
		metrics.DirectionsErrors.Inc()
		err := upstreamError("directions", resp.Status, resp.ErrorMessage)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream status")
		return nil, err
	}
	span.SetAttributes(attribute.Int("directions.routes", len(resp.Routes)))

	return mapDirections(resp), nil
}

func mapDirections(resp directionsResponse) *domain.DirectionsResult {
	out := &domain.DirectionsResult{Routes: make([]domain.DirectionsRoute, 0, len(resp.Routes))}
	for _, r := range resp.Routes {
		dr := domain.DirectionsRoute{Legs: make([]domain.DirectionsLeg, 0, len(r.Legs))}
		for _, l := range r.Legs {
			dr.Legs = append(dr.Legs, mapLeg(l))
			if l.ArrivalTime != nil {
				dr.ArrivalTime = &domain.TimeText{Text: l.ArrivalTime.Text}
			}
		}
		out.Routes = append(out.Routes, dr)
	}
	return out
}

func mapLeg(l leg) domain.DirectionsLeg {
	dl := domain.DirectionsLeg{
		StartAddress:  l.StartAddress,
		EndAddress:    l.EndAddress,
		StartLocation: mapPoint(l.StartLocation),
		EndLocation:   mapPoint(l.EndLocation),
		Distance:      mapTextValue(l.Distance),
		Duration:      mapTextValue(l.Duration),
	}
	for _, s := range l.Steps {
		dl.Steps = append(dl.Steps, domain.DirectionsStep{
			TravelMode:   s.TravelMode,
			Instructions: s.HTMLInstructions,
			Transit:      mapTransit(s.TransitDetails),
		})
	}
	return dl
}

func mapTransit(t *transitDetails) *domain.TransitDetails {
	if t == nil {
		return nil
	}
	out := &domain.TransitDetails{NumStops: t.NumStops}
	if t.Line != nil {
		out.Line = &domain.TransitLine{Name: t.Line.Name, ShortName: t.Line.ShortName}
	}
	if t.DepartureStop != nil {
		out.DepartureStop = &domain.TransitStop{Name: t.DepartureStop.Name}
	}
	if t.ArrivalStop != nil {
		out.ArrivalStop = &domain.TransitStop{Name: t.ArrivalStop.Name}
	}
	if t.DepartureTime != nil {
		out.DepartureTime = &domain.TimeText{Text: t.DepartureTime.Text}
	}
	if t.ArrivalTime != nil {
		out.ArrivalTime = &domain.TimeText{Text: t.ArrivalTime.Text}
	}
	return out
}

func mapPoint(p *latLng) *domain.GeoPoint {
	if p == nil {
		return nil
	}
	return &domain.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func mapTextValue(v *textValue) *domain.TextValue {
	if v == nil {
		return nil
	}
	return &domain.TextValue{Text: v.Text, Value: v.Value}
}

// placeParam renders a PlaceRef in the precedence order the directions
// endpoint expects: coordinates, then place ID, then free text.
func placeParam(ref domain.PlaceRef) string {
	if ref.Location != nil {
		return strconv.FormatFloat(ref.Location.Lat, 'f', -1, 64) + "," +
			strconv.FormatFloat(ref.Location.Lng, 'f', -1, 64)
	}
	if ref.PlaceID != "" {
		return "place_id:" + ref.PlaceID
	}
	return ref.Address
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func upstreamError(surface, status, message string) error {
	if message != "" {
		return fmt.Errorf("%s: upstream status %s: %s", surface, status, message)
	}
	return fmt.Errorf("%s: upstream status %s", surface, status)
}
