package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var (
	testJWT = config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
	}
	testPassword = config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1}
)

func TestServiceLoginMintsTokenAndOpensSession(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Casey Clerk",
		Email:        "casey@shop.example",
		PasswordHash: mustHashPassword(t, "till-secret"),
		Role:         enums.UserRoleEmployee,
		IsActive:     true,
	}
	svc, sessions, repo := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  CASEY@shop.example",
		Password: "till-secret",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.VerifyAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleEmployee {
		t.Fatalf("expected employee role claim, got %s", claims.Role)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if got := sessions.opened[claims.ID]; got != user.ID {
		t.Fatalf("expected session for jti %s to belong to %s, got %s", claims.ID, user.ID, got)
	}
	if repo.lastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("expected user dto in response, got %+v", resp.User)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	active := &models.User{
		ID:           uuid.New(),
		Email:        "casey@shop.example",
		PasswordHash: mustHashPassword(t, "till-secret"),
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	cases := map[string]struct {
		user     *models.User
		email    string
		password string
	}{
		"wrong password": {user: active, email: active.Email, password: "nope"},
		"unknown email":  {user: nil, email: "ghost@shop.example", password: "till-secret"},
		"blank email":    {user: active, email: "  ", password: "till-secret"},
		"inactive user": {
			user: &models.User{
				ID:           uuid.New(),
				Email:        "gone@shop.example",
				PasswordHash: active.PasswordHash,
				Role:         enums.UserRoleCustomer,
			},
			email:    "gone@shop.example",
			password: "till-secret",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, sessions, _ := buildTestService(t, tc.user)
			_, err := svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.password})
			if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if len(sessions.opened) != 0 {
				t.Fatalf("expected no session to be opened")
			}
		})
	}
}

func TestServiceLoginUpgradesOutdatedHash(t *testing.T) {
	weak := testPassword
	weak.ArgonTime = 2
	hash, err := security.HashPassword("till-secret", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "casey@shop.example", PasswordHash: hash, Role: enums.UserRoleEmployee, IsActive: true}
	svc, _, repo := buildTestService(t, user)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "casey@shop.example", Password: "till-secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed == "" || security.NeedsRehash(repo.rehashed, testPassword) {
		t.Fatalf("expected hash upgraded to current params, got %q", repo.rehashed)
	}
	if ok, _ := security.VerifyPassword("till-secret", repo.rehashed); !ok {
		t.Fatal("upgraded hash must still verify")
	}

	repo.rehashed = ""
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "casey@shop.example", Password: "till-secret"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if repo.rehashed != "" {
		t.Fatal("current hash should be left alone")
	}
}

func TestServiceRegisterCreatesCustomer(t *testing.T) {
	svc, _, repo := buildTestService(t, nil)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Buyer",
		Email:    "Buyer@Example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Role != enums.UserRoleCustomer {
		t.Fatalf("expected USER role, got %s", dto.Role)
	}
	if repo.user == nil || repo.user.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email to be stored, got %+v", repo.user)
	}
	ok, err := security.VerifyPassword("hunter22", repo.user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Email: "buyer@example.com", Role: enums.UserRoleCustomer}
	svc, _, _ := buildTestService(t, existing)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Buyer",
		Email:    "buyer@example.com",
		Password: "hunter22",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceRegisterValidatesInput(t *testing.T) {
	svc, _, _ := buildTestService(t, nil)

	for name, req := range map[string]RegisterRequest{
		"short name":     {Name: "B", Email: "b@example.com", Password: "hunter22"},
		"short password": {Name: "Buyer", Email: "b@example.com", Password: "abc"},
		"missing email":  {Name: "Buyer", Password: "hunter22"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), req)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil)
	sessions.opened["jti-1"] = uuid.New()

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.opened["jti-1"]; ok {
		t.Fatalf("expected session to be revoked")
	}

	if err := svc.Logout(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank access id, got %v", err)
	}
}

func TestServiceLogoutSurfacesStoreFailure(t *testing.T) {
	svc, sessions, _ := buildTestService(t, nil)
	sessions.err = errors.New("redis down")

	err := svc.Logout(context.Background(), "jti-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubSessionManager, *stubUserRepo) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{opened: map[string]uuid.UUID{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, repo
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	lastLogin *time.Time
	rehashed  string
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.NewAccount) (*models.User, error) {
	user := dto.Build()
	user.ID = uuid.New()
	s.user = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash string) error {
	s.lastLogin = &at
	s.rehashed = newHash
	return nil
}

type stubSessionManager struct {
	opened map[string]uuid.UUID
	err    error
}

func (s *stubSessionManager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.opened[accessID] = userID
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.opened, accessID)
	return nil
}
