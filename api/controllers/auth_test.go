package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubAuthService struct {
	registered *auth.RegisterRequest
	revoked    string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.Profile, error) {
	s.registered = &req
	return &users.Profile{ID: uuid.New(), Email: req.Email, Role: enums.UserRoleCustomer}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if req.Password != "till-secret" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return &auth.LoginResponse{AccessToken: "token-123", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	s.revoked = accessID
	return nil
}

func TestAuthRegisterValidatesBody(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name": "B", "email": "not-an-email", "password": "x"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	apiErr := decodeError(t, resp)
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["email"] == nil || details["password"] == nil {
		t.Fatalf("expected per-field details, got %+v", apiErr.Details)
	}
	if svc.registered != nil {
		t.Fatalf("service must not run for invalid payloads")
	}
}

func TestAuthRegisterCreatesAccount(t *testing.T) {
	svc := &stubAuthService{}
	resp := httptest.NewRecorder()
	AuthRegister(svc, nil).ServeHTTP(resp, jsonRequest(http.MethodPost, "/api/v1/auth/register", `{"name": "Buyer", "email": "buyer@example.com", "password": "hunter22"}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	resp := httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, nil).ServeHTTP(resp, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email": "casey@shop.example", "password": "till-secret"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Storefront-Token"); got != "token-123" {
		t.Fatalf("expected token header, got %q", got)
	}

	resp = httptest.NewRecorder()
	AuthLogin(&stubAuthService{}, nil).ServeHTTP(resp, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email": "casey@shop.example", "password": "wrong"}`))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthLogoutRevokesCallerSession(t *testing.T) {
	userID := uuid.New()
	svc := &stubAuthService{}
	req := withCaller(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), userID, enums.UserRoleCustomer)

	resp := httptest.NewRecorder()
	AuthLogout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if svc.revoked != "jti-"+userID.String() {
		t.Fatalf("expected caller session to be revoked, got %q", svc.revoked)
	}
}
