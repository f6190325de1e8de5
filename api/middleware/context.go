package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// The caller lives on the context as a pkg/auth Identity; these accessors
// read single fields of it and return zero values for anonymous requests.

func UserIDFromContext(ctx context.Context) string {
	if id, ok := pkgAuth.IdentityFromContext(ctx); ok {
		return id.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	id, _ := pkgAuth.IdentityFromContext(ctx)
	return id.Role
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	id, _ := pkgAuth.IdentityFromContext(ctx)
	return id.JTI
}

// WithClaims records the verified caller. Claims without a user are ignored.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	if claims == nil || claims.UserID == uuid.Nil {
		return ctx
	}
	return pkgAuth.WithIdentity(ctx, pkgAuth.IdentityFromClaims(claims))
}
