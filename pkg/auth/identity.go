package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   enums.UserRole
	JTI    string
}

type identityKey struct{}

// IdentityFromClaims maps verified token claims to an Identity.
func IdentityFromClaims(claims *AccessTokenClaims) Identity {
	if claims == nil {
		return Identity{}
	}
	return Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    claims.ID,
	}
}

// WithIdentity stores the caller on the context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller placed by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == uuid.Nil {
		return Identity{}, false
	}
	return identity, true
}

// ContextResolver resolves the caller from the request context. Anonymous
// requests resolve to nil without error.
type ContextResolver struct{}

func (ContextResolver) Resolve(ctx context.Context) (*Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, nil
	}
	return &identity, nil
}
