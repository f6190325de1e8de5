package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// AdminStaff lists employee and admin accounts.
func AdminStaff(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, "user service", func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		return ok(svc.ListStaff(r.Context()))
	})
}

// AdminEmployeeCreate provisions a staff account.
func AdminEmployeeCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, "user service", func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		input, err := decode[users.CreateEmployeeRequest](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.CreateEmployee(r.Context(), input))
	})
}
