package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// endpoint is a handler body that reports its status and payload instead of
// writing them. A nil payload with 204 writes no body.
type endpoint func(w http.ResponseWriter, r *http.Request) (int, any, error)

// serve turns an endpoint into a handler. When ready is false the dependency
// was never wired and every request fails as internal.
func serve(logg *logger.Logger, ready bool, dependency string, fn endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ready {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, dependency+" unavailable"))
			return
		}
		status, data, err := fn(w, r)
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case status == http.StatusNoContent:
			w.WriteHeader(status)
		default:
			responses.WriteSuccessStatus(w, status, data)
		}
	}
}

func ok[T any](v T, err error) (int, any, error) {
	return http.StatusOK, v, err
}

func created[T any](v T, err error) (int, any, error) {
	return http.StatusCreated, v, err
}

func fail(err error) (int, any, error) {
	return 0, nil, err
}

func decode[T any](r *http.Request) (T, error) {
	var payload T
	err := validators.DecodeJSONBody(r, &payload)
	return payload, err
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}

// enumValue normalizes raw and parses it, tagging failures as validation
// errors described by what.
func enumValue[T any](raw string, parse func(string) (T, error), what string) (T, error) {
	v, err := parse(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return v, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+what)
	}
	return v, nil
}

func uuidParam(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
