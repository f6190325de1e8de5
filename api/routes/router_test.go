package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubPlacement struct {
	calls int
}

func (s *stubPlacement) PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error) {
	s.calls++
	return &orders.PlaceOrderResult{OrderID: uuid.New()}, nil
}

type stubDashboard struct{}

func (stubDashboard) Stats(ctx context.Context) (*dashboard.Stats, error) {
	return &dashboard.Stats{RecentOrders: []orders.OrderDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-secret",
			Issuer:            "storefront",
			ExpirationMinutes: 15,
		},
	}
}

func bearerFor(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.IssueAccessToken(cfg.JWT, time.Now(), pkgAuth.Identity{
		UserID: uuid.New(),
		Email:  "caller@example.com",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func newTestRouter(deps Deps) (*config.Config, http.Handler) {
	cfg := testConfig()
	if deps.Sessions == nil {
		deps.Sessions = stubSessions{}
	}
	return cfg, NewRouter(cfg, nil, deps)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, router := newTestRouter(Deps{
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected live 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected ready 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "storefront_http_requests_total") {
		t.Fatalf("expected http counter in metrics output")
	}
	if !strings.Contains(resp.Body.String(), `route="/health/live"`) {
		t.Fatalf("expected route pattern label, got:\n%s", resp.Body.String())
	}
}

func TestCheckoutAllowsAnonymousCallers(t *testing.T) {
	placement := &stubPlacement{}
	_, router := newTestRouter(Deps{Placement: placement})

	body := `{"items": [{"variant_id": "` + uuid.NewString() + `", "quantity": 1, "price": "10.00"}], "total_amount": "10.00", "customer": {"name": "Guest", "email": "guest@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if placement.calls != 1 {
		t.Fatalf("expected placement to run once, got %d", placement.calls)
	}
}

func TestCheckoutRejectsInvalidToken(t *testing.T) {
	placement := &stubPlacement{}
	_, router := newTestRouter(Deps{Placement: placement})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer garbage")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if placement.calls != 0 {
		t.Fatalf("placement must not run for bad tokens")
	}
}

func TestPOSRequiresStaff(t *testing.T) {
	placement := &stubPlacement{}
	cfg, router := newTestRouter(Deps{Placement: placement})
	body := `{"location_id": "` + uuid.NewString() + `", "items": [{"variant_id": "` + uuid.NewString() + `", "quantity": 1, "price": "10.00"}], "total_amount": "10.00"}`

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "customer", auth: bearerFor(t, cfg, enums.UserRoleCustomer), status: http.StatusForbidden},
		{name: "employee", auth: bearerFor(t, cfg, enums.UserRoleEmployee), status: http.StatusCreated},
		{name: "admin", auth: bearerFor(t, cfg, enums.UserRoleAdmin), status: http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pos/orders", strings.NewReader(body))
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	cfg, router := newTestRouter(Deps{Dashboard: stubDashboard{}})

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "employee", auth: bearerFor(t, cfg, enums.UserRoleEmployee), status: http.StatusForbidden},
		{name: "admin", auth: bearerFor(t, cfg, enums.UserRoleAdmin), status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestUnwiredServiceAnswersInternalError(t *testing.T) {
	cfg, router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	_, router := newTestRouter(Deps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}
