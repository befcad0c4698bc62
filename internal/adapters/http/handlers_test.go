package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/hyunwoojo/gilro/internal/adapters/http"
	"github.com/hyunwoojo/gilro/internal/core/domain"
	"github.com/hyunwoojo/gilro/internal/core/ports"
	"github.com/hyunwoojo/gilro/internal/core/state"
	"github.com/hyunwoojo/gilro/internal/core/usecases"
)

// ---- Mock ports ----

type mockDirections struct {
	routeFn func(ctx context.Context, req ports.DirectionsRequest) (*domain.DirectionsResult, error)
}

func (m *mockDirections) Route(ctx context.Context, req ports.DirectionsRequest) (*domain.DirectionsResult, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, req)
	}
	return &domain.DirectionsResult{}, nil
}

type mockPlaces struct {
	autocompleteFn func(ctx context.Context, sessionID, input string) ([]domain.Place, error)
	resolveFn      func(ctx context.Context, sessionID, placeID string) (*domain.Place, error)
}

func (m *mockPlaces) Autocomplete(ctx context.Context, sessionID, input string) ([]domain.Place, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, sessionID, input)
	}
	return nil, nil
}

func (m *mockPlaces) ResolvePlace(ctx context.Context, sessionID, placeID string) (*domain.Place, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, sessionID, placeID)
	}
	return nil, nil
}

type mockPositions struct{}

func (m *mockPositions) Watch(context.Context, string, func(domain.Position), func(error)) (ports.CancelFunc, error) {
	return func() {}, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishProgress(context.Context, string, *domain.ProgressSnapshot) error {
	return nil
}
func (noopPublisher) PublishAnnouncement(context.Context, string, domain.Announcement) error {
	return nil
}
func (noopPublisher) PublishMapCommand(context.Context, string, domain.MapCommand) error {
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(directions ports.DirectionsProvider, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	store := state.NewStore(time.Hour)
	nav := usecases.NewNavigationService(store, &mockPositions{}, noopPublisher{}, nil)
	planner := usecases.NewPlannerService(store, directions, nil, noopPublisher{}, nav, 0)

	d := &handler.Dependencies{
		Sessions:   store,
		Planner:    planner,
		Navigation: nav,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var trip domain.TripState
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil {
		t.Fatal(err)
	}
	return trip.SessionID
}

// ---- Session tests ----

func TestCreateSession(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var trip domain.TripState
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil {
		t.Fatal(err)
	}
	if trip.SessionID == "" {
		t.Error("missing session_id")
	}
	if trip.Navigation.Phase != domain.PhasePlanning {
		t.Errorf("phase = %q, want planning", trip.Navigation.Phase)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sessions/nope", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListSessions_Pagination(t *testing.T) {
	deps := makeDeps(nil)
	app := setupApp(deps)
	for i := 0; i < 3; i++ {
		createSession(t, app)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sessions?offset=0&limit=2", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.TripState `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 3 || len(result.Data) != 2 {
		t.Errorf("total = %d, page = %d, want 3 and 2", result.Pagination.Total, len(result.Data))
	}
	if !strings.Contains(resp.Header.Get("Link"), `rel="next"`) {
		t.Errorf("Link header missing next: %q", resp.Header.Get("Link"))
	}
}

func TestDeleteSession(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/v1/sessions/"+id, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("deleted session still answers %d", resp.StatusCode)
	}
}

// ---- Stop edit tests ----

func TestSetOrigin(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	req := httptest.NewRequest("PUT", "/v1/sessions/"+id+"/origin",
		strings.NewReader(`{"label":"서울역","location":{"lat":37.5547,"lng":126.9707}}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var trip domain.TripState
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil {
		t.Fatal(err)
	}
	if trip.Origin == nil || trip.Origin.Label != "서울역" {
		t.Errorf("origin = %+v", trip.Origin)
	}
}

func TestSetOrigin_EmptyStop(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	req := httptest.NewRequest("PUT", "/v1/sessions/"+id+"/origin", strings.NewReader(`{"label":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMoveWaypoint_InvalidDirection(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	req := httptest.NewRequest("POST", "/v1/sessions/"+id+"/waypoints/0/move",
		strings.NewReader(`{"direction":"sideways"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Route tests ----

func setStops(t *testing.T, app *fiber.App, id string) {
	t.Helper()
	for _, tc := range []struct{ path, body string }{
		{"/origin", `{"label":"서울역","location":{"lat":37.5547,"lng":126.9707}}`},
		{"/destination", `{"label":"강남역","location":{"lat":37.4979,"lng":127.0276}}`},
	} {
		req := httptest.NewRequest("PUT", "/v1/sessions/"+id+tc.path, strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("set stop %s: status %d", tc.path, resp.StatusCode)
		}
	}
}

func TestCalculateRoute_Success(t *testing.T) {
	directions := &mockDirections{
		routeFn: func(_ context.Context, req ports.DirectionsRequest) (*domain.DirectionsResult, error) {
			return &domain.DirectionsResult{Routes: []domain.DirectionsRoute{{
				Legs: []domain.DirectionsLeg{{
					StartAddress: req.Origin.Address,
					EndAddress:   req.Destination.Address,
					Distance:     &domain.TextValue{Text: "11 km", Value: 11000},
					Duration:     &domain.TextValue{Text: "40분", Value: 2400},
				}},
			}}}, nil
		},
	}
	app := setupApp(makeDeps(directions))
	id := createSession(t, app)
	setStops(t, app, id)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions/"+id+"/route", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var plan domain.RoutePlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		t.Fatal(err)
	}
	if plan.TotalDistanceMeters != 11000 || len(plan.Segments) != 1 {
		t.Errorf("plan = %+v", plan)
	}

	// The plan is now readable.
	resp, err = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id+"/route", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("GET route after calculation: %d", resp.StatusCode)
	}
}

func TestCalculateRoute_InsufficientInput(t *testing.T) {
	app := setupApp(makeDeps(&mockDirections{}))
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions/"+id+"/route", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCalculateRoute_NoProvider(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)
	setStops(t, app, id)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions/"+id+"/route", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGetRoute_NoPlan(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id+"/route", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Navigation tests ----

func TestStartNavigation_WithoutPlan(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions/"+id+"/navigation/start", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 409 {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestGetProgress_NoneYet(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := createSession(t, app)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id+"/progress", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Places tests ----

func TestAutocomplete_Success(t *testing.T) {
	deps := makeDeps(nil, func(d *handler.Dependencies) {
		d.Places = &mockPlaces{
			autocompleteFn: func(_ context.Context, _, input string) ([]domain.Place, error) {
				return []domain.Place{{PlaceID: "p1", Name: "서울역", Address: "서울특별시 용산구"}}, nil
			},
		}
	})
	app := setupApp(deps)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/places/autocomplete?session=s1&q=%EC%84%9C%EC%9A%B8", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var places []domain.Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		t.Fatal(err)
	}
	if len(places) != 1 || places[0].PlaceID != "p1" {
		t.Errorf("places = %+v", places)
	}
}

func TestAutocomplete_MissingParams(t *testing.T) {
	deps := makeDeps(nil, func(d *handler.Dependencies) {
		d.Places = &mockPlaces{}
	})
	app := setupApp(deps)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/places/autocomplete?q=x", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("missing session: expected 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/places/autocomplete?session=s1", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("missing q: expected 400, got %d", resp.StatusCode)
	}
}

func TestAutocomplete_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/places/autocomplete?session=s1&q=x", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRecentTrips_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/trips/recent", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}
