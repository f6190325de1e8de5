package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Profile is a user as clients see it; the password hash never leaves the package.
type Profile struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func ProfileOf(u *models.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// NewAccount is a user about to be stored. The password is already hashed.
type NewAccount struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

// Build defaults the role to customer and activates the account.
func (a NewAccount) Build() *models.User {
	u := &models.User{Name: a.Name, Email: a.Email, PasswordHash: a.PasswordHash, Role: a.Role, IsActive: true}
	if u.Role == "" {
		u.Role = enums.UserRoleCustomer
	}
	return u
}

// CreateEmployeeRequest onboards staff. Role defaults to employee.
type CreateEmployeeRequest struct {
	Name     string         `json:"name" validate:"required,min=2"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Role     enums.UserRole `json:"role,omitempty"`
}
