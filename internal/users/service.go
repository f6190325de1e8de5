package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const msgEmailTaken = "email already registered"

// Service manages staff accounts on behalf of administrators.
type Service interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*Profile, error)
	ListStaff(ctx context.Context) ([]Profile, error)
}

type userStore interface {
	Create(ctx context.Context, dto NewAccount) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListStaff(ctx context.Context) ([]models.User, error)
}

type service struct {
	users       userStore
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds the staff service.
func NewService(store userStore, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{users: store, passwordCfg: passwordCfg, logg: logg}, nil
}

func (s *service) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (*Profile, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleEmployee
	}
	if !role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be EMPLOYEE or ADMIN")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msgEmailTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, NewAccount{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgEmailTaken)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": user.ID.String(),
			"role":    string(user.Role),
		})
		s.logg.Info(logCtx, "employee created")
	}
	return ProfileOf(user), nil
}

func (s *service) ListStaff(ctx context.Context) ([]Profile, error) {
	rows, err := s.users.ListStaff(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list staff")
	}
	out := make([]Profile, 0, len(rows))
	for i := range rows {
		out = append(out, *ProfileOf(&rows[i]))
	}
	return out, nil
}

// NormalizeEmail trims and lowercases an email for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
