package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type authenticator struct {
	jwt      config.JWTConfig
	sessions session.AccessSessionChecker
	logg     *logger.Logger
	optional bool
}

// Auth requires a bearer token whose session is still open.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticator{jwt: cfg, sessions: sessions, logg: logg}.middleware
}

// OptionalAuth lets anonymous requests through but still rejects a bad token.
func OptionalAuth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticator{jwt: cfg, sessions: sessions, logg: logg, optional: true}.middleware
}

func (a authenticator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r.Header.Get("Authorization"))
		if !present {
			if a.optional {
				next.ServeHTTP(w, r)
				return
			}
			responses.WriteError(r.Context(), a.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		ctx, err := a.verify(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), a.logg, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a authenticator) verify(ctx context.Context, token string) (context.Context, error) {
	claims, err := pkgAuth.VerifyAccessToken(a.jwt, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if a.sessions != nil {
		open, err := a.sessions.HasSession(ctx, claims.ID)
		switch {
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		case !open:
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or revoked")
		}
	}

	ctx = WithClaims(ctx, claims)
	if a.logg != nil {
		ctx = a.logg.WithFields(ctx, map[string]any{
			"user_id":    claims.UserID.String(),
			"actor_role": string(claims.Role),
		})
	}
	return ctx, nil
}

// bearerToken reports whether any credentials were sent at all, so a
// malformed header is rejected rather than treated as anonymous.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if found && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token), true
	}
	return header, true
}
