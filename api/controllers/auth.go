package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	authDependency = "auth service"
	tokenHeader    = "X-Storefront-Token"
)

// AuthRegister opens a customer account.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, authDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		body, err := decode[auth.RegisterRequest](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.Register(r.Context(), body))
	})
}

// AuthLogin returns the session token in the body and echoes it in a header.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, authDependency, func(w http.ResponseWriter, r *http.Request) (int, any, error) {
		body, err := decode[auth.LoginRequest](r)
		if err != nil {
			return fail(err)
		}
		result, err := svc.Login(r.Context(), body)
		if err != nil {
			return fail(err)
		}
		w.Header().Set(tokenHeader, result.AccessToken)
		return http.StatusOK, result, nil
	})
}

// AuthLogout revokes the session behind the presented token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, authDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		return http.StatusNoContent, nil, svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context()))
	})
}
