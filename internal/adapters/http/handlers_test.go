package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/mahi13singh2004/AIKYAM/internal/adapters/http"
	"github.com/mahi13singh2004/AIKYAM/internal/core/domain"
	"github.com/mahi13singh2004/AIKYAM/internal/core/safety"
	"github.com/mahi13singh2004/AIKYAM/internal/core/usecases"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/auth"
	"github.com/mahi13singh2004/AIKYAM/internal/pkg/geospatial"
)

// ---- Mock repositories ----

type mockUnsafeRepo struct {
	mu       sync.Mutex
	locs     []domain.UnsafeLocation
	listErr  error
	createFn func(ctx context.Context, loc *domain.UnsafeLocation) error
}

func (m *mockUnsafeRepo) List(ctx context.Context) ([]domain.UnsafeLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.UnsafeLocation(nil), m.locs...), nil
}
func (m *mockUnsafeRepo) ListSince(ctx context.Context, since time.Time) ([]domain.UnsafeLocation, error) {
	return m.List(ctx)
}
func (m *mockUnsafeRepo) GetByID(ctx context.Context, id string) (*domain.UnsafeLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.locs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockUnsafeRepo) Create(ctx context.Context, loc *domain.UnsafeLocation) error {
	if m.createFn != nil {
		return m.createFn(ctx, loc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	loc.ID = fmt.Sprintf("loc-%d", len(m.locs)+1)
	loc.CreatedAt = time.Now()
	m.locs = append([]domain.UnsafeLocation{*loc}, m.locs...)
	return nil
}
func (m *mockUnsafeRepo) CreateBatch(ctx context.Context, locs []domain.UnsafeLocation) (int, error) {
	return 0, nil
}
func (m *mockUnsafeRepo) FindWithin(ctx context.Context, box domain.Bounds) ([]domain.UnsafeLocation, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.UnsafeLocation
	for _, l := range all {
		if box.Contains(l.Point()) {
			out = append(out, l)
		}
	}
	return out, nil
}
func (m *mockUnsafeRepo) SetIPFSHash(ctx context.Context, id, hash string) error { return nil }

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]*domain.User{}
	}
	u.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	cp := *u
	m.users[u.ID] = &cp
	return nil
}
func (m *mockUserRepo) Exists(ctx context.Context, username, emailHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.EmailHash == emailHash {
			return true, nil
		}
	}
	return false, nil
}
func (m *mockUserRepo) FindByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmailHash == emailHash {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type mockStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func (m *mockStore) PinJSON(ctx context.Context, name string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = map[string][]byte{}
	}
	cid := fmt.Sprintf("Qm%d", len(m.docs)+1)
	m.docs[cid] = data
	return cid, nil
}
func (m *mockStore) FetchJSON(ctx context.Context, cid string, out any) error {
	m.mu.Lock()
	data, ok := m.docs[cid]
	m.mu.Unlock()
	if !ok {
		return errors.New("not pinned")
	}
	return json.Unmarshal(data, out)
}
func (m *mockStore) Unpin(ctx context.Context, cid string) error { return nil }

type mockRouting struct {
	routeFn func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error)
}

func (m *mockRouting) Routes(ctx context.Context, origin, destination domain.Waypoint, opt domain.TravelOption) ([]domain.Route, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, opt)
	}
	return nil, nil
}

type mockChatModel struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return "Stay safe!", nil
}

// ---- Test helpers ----

var (
	center = domain.GeoPoint{Lat: 10.7275, Lng: 76.2900}
	hazard = domain.UnsafeLocation{ID: "hazard", Lat: 10.7275, Lng: 76.2900, Status: domain.StatusUnsafe, CreatedAt: time.Now().Add(-time.Hour)}
)

func routeVia(end domain.GeoPoint) domain.Route {
	return domain.Route{Summary: "via test", DistanceMeters: 1200, Legs: []domain.RouteLeg{{Steps: []domain.RouteStep{
		{StartPoint: domain.GeoPoint{Lat: 10.70, Lng: 76.25}, EndPoint: end},
	}}}}
}

type testEnv struct {
	unsafe  *mockUnsafeRepo
	routing *mockRouting
	chat    *mockChatModel
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(env *testEnv) *handler.Dependencies {
	if env.unsafe == nil {
		env.unsafe = &mockUnsafeRepo{}
	}
	if env.routing == nil {
		env.routing = &mockRouting{}
	}
	if env.chat == nil {
		env.chat = &mockChatModel{}
	}
	return &handler.Dependencies{
		Unsafe: usecases.NewUnsafeLocationService(env.unsafe, nil, nil, 0, 100),
		SafeRoutes: usecases.NewSafeRouteService(env.routing, geospatial.NewPolylineDecoder(), nil, usecases.SafeRouteConfig{
			Threshold:     safety.Threshold{Radius: 50, Buffer: 50},
			OptionTimeout: time.Second,
			SearchTimeout: 5 * time.Second,
		}),
		Auth:      usecases.NewAuthService(&mockUserRepo{}, &mockStore{}, auth.NewManager("test-secret", time.Hour)),
		Counselor: usecases.NewCounselorService(env.chat),
		Reports:   usecases.NewReportService(env.unsafe, nil, center, 0),
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeAPIError(t *testing.T, resp *http.Response) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/v1/health", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected request id header")
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/v1/ready", "")
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Unsafe locations ----

func TestListUnsafe_Pagination(t *testing.T) {
	repo := &mockUnsafeRepo{}
	for i := 0; i < 5; i++ {
		repo.locs = append(repo.locs, domain.UnsafeLocation{ID: fmt.Sprintf("u%d", i), Lat: 10, Lng: 76, Status: domain.StatusUnsafe})
	}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/v1/unsafe?offset=2&limit=2", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.UnsafeLocation `json:"data"`
		Pagination handler.Pagination      `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	if len(result.Data) != 2 || result.Data[0].ID != "u2" {
		t.Errorf("unexpected page %+v", result.Data)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "offset=4") {
		t.Errorf("expected next link to offset 4, got %q", link)
	}
}

func TestReportUnsafe_Success(t *testing.T) {
	env := &testEnv{}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/unsafe", `{"lat":10.7275,"lng":76.29}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var loc domain.UnsafeLocation
	json.NewDecoder(resp.Body).Decode(&loc)
	if loc.ID == "" || loc.Status != domain.StatusUnsafe {
		t.Errorf("unexpected location %+v", loc)
	}
	if len(env.unsafe.locs) != 1 {
		t.Errorf("expected 1 stored location, got %d", len(env.unsafe.locs))
	}
}

func TestReportUnsafe_Validation(t *testing.T) {
	tests := map[string]string{
		"missing lng":   `{"lat":10.7}`,
		"lat too large": `{"lat":91,"lng":76}`,
		"lng too small": `{"lat":10,"lng":-181}`,
		"not json":      `lat=10`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			app := setupApp(makeDeps(&testEnv{}))
			resp := doJSON(t, app, "POST", "/v1/unsafe", body)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if apiErr := decodeAPIError(t, resp); apiErr.Code != "bad_request" {
				t.Errorf("expected bad_request, got %s", apiErr.Code)
			}
		})
	}
}

func TestGetUnsafe_NotFound(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/v1/unsafe/missing", "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetUnsafe_MalformedID(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{{ID: "not-a-uuid", Lat: 10, Lng: 76}}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/v1/unsafe/not-a-uuid", "")
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestGetUnsafe_Found(t *testing.T) {
	const id = "0b5e8f3a-2c1d-4e6f-9a7b-8c9d0e1f2a3b"
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{{ID: id, Lat: 10.73, Lng: 76.29, Status: domain.StatusUnsafe}}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/v1/unsafe/"+id, "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var loc domain.UnsafeLocation
	json.NewDecoder(resp.Body).Decode(&loc)
	if loc.ID != id {
		t.Errorf("expected %s, got %s", id, loc.ID)
	}
}

func TestNearbyUnsafe_Alert(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	// about 55 m north of the hazard
	resp := doJSON(t, app, "GET", "/v1/unsafe/nearby?lat=10.7280&lng=76.29", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Alert     bool                          `json:"alert"`
		Locations []domain.NearbyUnsafeLocation `json:"locations"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if !result.Alert || len(result.Locations) != 1 {
		t.Fatalf("expected one alerting location, got %+v", result)
	}
	if d := result.Locations[0].Distance; d < 50 || d > 60 {
		t.Errorf("expected distance near 55 m, got %f", d)
	}
}

func TestNearbyUnsafe_MissingParams(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/v1/unsafe/nearby?lat=10.7", "")
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Safe route ----

const safeRouteBody = `{"origin":{"lat":10.70,"lng":76.25},"destination":{"address":"Thrissur Railway Station"}}`

func TestSafeRoute_Found(t *testing.T) {
	env := &testEnv{
		unsafe: &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}},
		routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
			if opt.Mode == domain.ModeDriving {
				return []domain.Route{routeVia(domain.GeoPoint{Lat: hazard.Lat, Lng: hazard.Lng + 0.0002})}, nil
			}
			return []domain.Route{routeVia(domain.GeoPoint{Lat: 10.70, Lng: 76.33})}, nil
		}},
	}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/routes/safe", safeRouteBody)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var result struct {
		Option          domain.TravelOption    `json:"option"`
		Attempts        []domain.SearchAttempt `json:"attempts"`
		ThresholdMeters float64                `json:"threshold_meters"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Option.Mode != domain.ModeTwoWheeler || result.Option.AvoidHighways {
		t.Errorf("expected TWO_WHEELER, got %s", result.Option)
	}
	if len(result.Attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(result.Attempts))
	}
	if result.ThresholdMeters != 100 {
		t.Errorf("expected threshold 100, got %f", result.ThresholdMeters)
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", resp.Header.Get("Cache-Control"))
	}
}

func TestSafeRoute_NoSafeRoute(t *testing.T) {
	env := &testEnv{
		unsafe: &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}},
		routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
			return []domain.Route{routeVia(domain.GeoPoint{Lat: hazard.Lat, Lng: hazard.Lng})}, nil
		}},
	}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/routes/safe", safeRouteBody)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var body handler.SearchErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != "no_safe_route" {
		t.Errorf("expected no_safe_route, got %s", body.Code)
	}
	if len(body.Attempts) != 7 {
		t.Errorf("expected 7 attempts, got %d", len(body.Attempts))
	}
}

func TestSafeRoute_RoutingUnavailable(t *testing.T) {
	env := &testEnv{
		routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
			return nil, &domain.ServiceUnavailableError{Option: opt, Status: "403", Err: errors.New("forbidden")}
		}},
	}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/routes/safe", safeRouteBody)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Code != "routing_unavailable" {
		t.Errorf("expected routing_unavailable, got %s", apiErr.Code)
	}
}

func TestSafeRoute_NoRoutesAnywhere(t *testing.T) {
	env := &testEnv{
		routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
			return nil, nil
		}},
	}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/routes/safe", safeRouteBody)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}

	var body handler.SearchErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != "routing_unavailable" {
		t.Errorf("expected routing_unavailable, got %s", body.Code)
	}
	if len(body.Attempts) != 7 || body.Attempts[0].Outcome != domain.OutcomeNoRoutes {
		t.Errorf("expected 7 no_routes attempts, got %+v", body.Attempts)
	}
}

func TestSafeRoute_CallerCancelled(t *testing.T) {
	calls := 0
	env := &testEnv{
		routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
			calls++
			return nil, nil
		}},
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(c.UserContext())
		cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	handler.SetupRoutes(app, makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/routes/safe", safeRouteBody)
	if resp.StatusCode != 499 {
		t.Fatalf("expected 499, got %d", resp.StatusCode)
	}

	var body handler.SearchErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != "search_cancelled" {
		t.Errorf("expected search_cancelled, got %s", body.Code)
	}
	if body.Attempts == nil {
		t.Error("expected an attempt log, even if empty")
	}
	if calls != 0 {
		t.Errorf("expected no routing calls, got %d", calls)
	}
}

func TestSafeRoute_BadWaypoints(t *testing.T) {
	tests := map[string]string{
		"missing destination": `{"origin":{"lat":10.7,"lng":76.2}}`,
		"half a coordinate":   `{"origin":{"lat":10.7},"destination":{"address":"x"}}`,
		"both forms":          `{"origin":{"lat":10.7,"lng":76.2,"address":"x"},"destination":{"address":"y"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			app := setupApp(makeDeps(&testEnv{}))
			resp := doJSON(t, app, "POST", "/v1/routes/safe", body)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

// ---- Counselor ----

func TestCounselor_Reply(t *testing.T) {
	env := &testEnv{chat: &mockChatModel{completeFn: func(ctx context.Context, prompt string) (string, error) {
		return "Share your live location. 2. Stay in lit areas", nil
	}}}
	app := setupApp(makeDeps(env))

	resp := doJSON(t, app, "POST", "/v1/counselor", `{"message":"walking home late"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	if !body.Success || body.Message != "1. Share your live location. 2. Stay in lit areas" {
		t.Errorf("unexpected reply %+v", body)
	}
}

func TestCounselor_EmptyMessage(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "POST", "/v1/counselor", `{"message":""}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Message != "Message is required" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

// ---- Auth ----

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

func TestAuth_SignupCheckLogin(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "POST", "/v1/auth/signup", `{"username":"asha","email":"asha@example.com","password":"s3cret"}`)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
		t.Fatalf("expected httpOnly token cookie, got %+v", cookie)
	}

	resp = doJSON(t, app, "GET", "/v1/auth/check", "", "Cookie", "token="+cookie.Value)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var check handler.AuthResponse
	json.NewDecoder(resp.Body).Decode(&check)
	if check.User.Username != "asha" || check.User.Email != "asha@example.com" {
		t.Errorf("unexpected profile %+v", check.User)
	}

	resp = doJSON(t, app, "GET", "/v1/auth/check", "", "Authorization", "Bearer "+cookie.Value)
	if resp.StatusCode != 200 {
		t.Fatalf("expected bearer token to work, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/v1/auth/login", `{"email":"asha@example.com","password":"s3cret"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/v1/auth/login", `{"email":"asha@example.com","password":"wrong"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Message != "Invalid password" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestAuth_DuplicateSignup(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))
	body := `{"username":"asha","email":"asha@example.com","password":"s3cret"}`

	if resp := doJSON(t, app, "POST", "/v1/auth/signup", body); resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp := doJSON(t, app, "POST", "/v1/auth/signup", body)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Message != "User already exists" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestAuth_SignupMissingFields(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "POST", "/v1/auth/signup", `{"username":"asha"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Message != "All fields are required" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestAuth_LoginUnknownUser(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "POST", "/v1/auth/login", `{"email":"nobody@example.com","password":"x"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if apiErr := decodeAPIError(t, resp); apiErr.Message != "User not found" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestAuth_CheckWithoutToken(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/v1/auth/check", "")
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/v1/auth/check", "", "Authorization", "Bearer not-a-token")
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401 for a bad token, got %d", resp.StatusCode)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "POST", "/v1/auth/logout", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if c := sessionCookie(resp); c == nil || c.Value != "" {
		t.Errorf("expected emptied token cookie, got %+v", c)
	}
}

// ---- Reports ----

func TestReportStats(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{
		{ID: "n", Lat: 11.0, Lng: 76.3, Status: domain.StatusUnsafe, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: "s", Lat: 10.0, Lng: 76.2, Status: domain.StatusUnsafe, CreatedAt: time.Now().Add(-30 * time.Hour)},
	}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/v1/reports/stats", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats domain.ReportStats
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.Total != 2 || stats.Last24h != 1 || stats.Previous24h != 1 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if len(stats.Hourly) != 24 {
		t.Errorf("expected 24 buckets, got %d", len(stats.Hourly))
	}
}

// ---- Legacy paths ----

func TestLegacyUnsafe_BareArrayWithDeprecation(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/api/unsafe", "")
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/unsafe") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}

	var locs []domain.UnsafeLocation
	if err := json.NewDecoder(resp.Body).Decode(&locs); err != nil {
		t.Fatalf("expected a bare array: %v", err)
	}
	if len(locs) != 1 {
		t.Errorf("expected 1 location, got %d", len(locs))
	}
}

func TestLegacyCheckAuth(t *testing.T) {
	app := setupApp(makeDeps(&testEnv{}))

	resp := doJSON(t, app, "GET", "/api/auth/checkAuth", "")
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Link"), "/v1/auth/check") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}
}

// ---- Conditional requests ----

func TestETag_NotModified(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	resp := doJSON(t, app, "GET", "/v1/unsafe", "")
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	resp = doJSON(t, app, "GET", "/v1/unsafe", "", "If-None-Match", etag)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func TestGraphQL_UnsafeLocationsAndStats(t *testing.T) {
	repo := &mockUnsafeRepo{locs: []domain.UnsafeLocation{hazard}}
	app := setupApp(makeDeps(&testEnv{unsafe: repo}))

	query := `{"query":"{ unsafeLocations { id lat lng } nearbyUnsafe(lat: 10.7275, lng: 76.29) { alert } reportStats { total } }"}`
	resp := doJSON(t, app, "POST", "/graphql", query)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			UnsafeLocations []struct {
				ID string `json:"id"`
			} `json:"unsafeLocations"`
			NearbyUnsafe struct {
				Alert bool `json:"alert"`
			} `json:"nearbyUnsafe"`
			ReportStats struct {
				Total int `json:"total"`
			} `json:"reportStats"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Data.UnsafeLocations) != 1 || result.Data.UnsafeLocations[0].ID != "hazard" {
		t.Errorf("unexpected locations %+v", result.Data.UnsafeLocations)
	}
	if !result.Data.NearbyUnsafe.Alert {
		t.Error("expected proximity alert")
	}
	if result.Data.ReportStats.Total != 1 {
		t.Errorf("expected total 1, got %d", result.Data.ReportStats.Total)
	}
}

func TestGraphQL_SafeRouteError(t *testing.T) {
	env := &testEnv{routing: &mockRouting{routeFn: func(ctx context.Context, opt domain.TravelOption) ([]domain.Route, error) {
		return nil, &domain.ServiceUnavailableError{Option: opt, Err: errors.New("timeout")}
	}}}
	app := setupApp(makeDeps(env))

	query := `{"query":"{ safeRoute(origin: {lat: 10.7, lng: 76.25}, destination: {address: \"Thrissur\"}) { mode } }"}`
	resp := doJSON(t, app, "POST", "/graphql", query)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "routing service unavailable") {
		t.Errorf("expected routing error in %s", body)
	}
}
