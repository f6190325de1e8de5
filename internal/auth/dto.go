package auth

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
)

type (
	// RegisterRequest opens a customer account.
	RegisterRequest struct {
		Name     string `json:"name" validate:"required,min=2"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	// LoginResponse carries the bearer token for the new session.
	LoginResponse struct {
		AccessToken string         `json:"access_token"`
		ExpiresAt   time.Time      `json:"expires_at"`
		User        *users.Profile `json:"user"`
	}
)
