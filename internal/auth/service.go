// Package auth registers customers and opens and closes login sessions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// Every login failure reads the same so callers cannot probe for accounts.
var errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.Profile, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userStore interface {
	Create(ctx context.Context, dto users.NewAccount) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash string) error
}

type sessionStore interface {
	Open(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

type ServiceParams struct {
	UserRepo       userStore
	SessionManager sessionStore
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users    userStore
	sessions sessionStore
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.UserRepo == nil:
		return nil, errors.New("user repository is required")
	case p.SessionManager == nil:
		return nil, errors.New("session manager is required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		users:    p.UserRepo,
		sessions: p.SessionManager,
		jwt:      p.JWTConfig,
		password: p.PasswordConfig,
		logg:     p.Logger,
		now:      p.Now,
	}, nil
}

// Register opens a customer account. Staff accounts are created by admins.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.Profile, error) {
	email, name := users.NormalizeEmail(req.Email), strings.TrimSpace(req.Name)
	switch {
	case email == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case len(name) < 2:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must be at least 2 characters")
	case len(req.Password) < 6:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, emailTaken()
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := s.users.Create(ctx, users.NewAccount{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
	})
	switch {
	case db.IsUniqueViolation(err, ""):
		return nil, emailTaken()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.ProfileOf(user), nil
}

func emailTaken() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "Email already in use")
}

// Login checks credentials, issues an access token and opens the session its
// JTI points at. A hash made with outdated costs is replaced on the way.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, user.ID, now, s.rehash(ctx, user, req.Password)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	user.LastLoginAt = &now

	who := pkgAuth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role, JTI: session.NewAccessID()}
	token, err := pkgAuth.IssueAccessToken(s.jwt, now, who)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue access token")
	}
	if err := s.sessions.Open(ctx, who.JTI, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	}
	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwt.AccessTokenTTL()),
		User:        users.ProfileOf(user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return nil, errBadCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errBadCredentials
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok || !user.IsActive {
		return nil, errBadCredentials
	}
	return user, nil
}

// rehash returns a replacement hash, or "" when the stored one is current or
// hashing fails. A failed upgrade never blocks the login.
func (s *service) rehash(ctx context.Context, user *models.User, password string) string {
	if !security.NeedsRehash(user.PasswordHash, s.password) {
		return ""
	}
	hash, err := security.HashPassword(password, s.password)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "password rehash skipped")
		}
		return ""
	}
	user.PasswordHash = hash
	return hash
}

// Logout revokes the session so the token stops working before it expires.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
