// Package session keeps the server-side record of issued access tokens so a
// logout takes effect before the token expires.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var errBlankAccessID = errors.New("access id is required")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(accessID string) string
}

// AccessSessionChecker is what the auth middleware needs to reject revoked tokens.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Manager maps token jti values to the user they were issued for.
type Manager struct {
	store store
	ttl   time.Duration
}

func NewManager(s store, cfg config.JWTConfig) (*Manager, error) {
	if s == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.AccessTokenTTL()
	if ttl <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	return &Manager{store: s, ttl: ttl}, nil
}

// Open records the session for as long as the token it backs is valid.
func (m *Manager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	k, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, k, userID.String(), m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	k, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, k)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	k, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	_, found, err := m.store.Get(ctx, k)
	return found, err
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errBlankAccessID
	}
	return m.store.SessionKey(accessID), nil
}

// NewAccessID mints the jti shared by the JWT and its session entry.
func NewAccessID() string {
	return uuid.NewString()
}
