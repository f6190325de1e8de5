package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/internal/locations"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const locationDependency = "location service"

func AdminLocations(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, locationDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		return ok(svc.List(r.Context()))
	})
}

func AdminLocationCreate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, locationDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		input, err := decode[locations.LocationInput](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.Create(r.Context(), input))
	})
}

func AdminLocationUpdate(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, locationDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		locationID, err := uuidParam(r, "locationId", "location id")
		if err != nil {
			return fail(err)
		}
		input, err := decode[locations.LocationInput](r)
		if err != nil {
			return fail(err)
		}
		return ok(svc.Update(r.Context(), locationID, input))
	})
}
