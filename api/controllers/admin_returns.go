package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/returns"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type returnAdmin interface {
	List(ctx context.Context, status *enums.ReturnStatus) ([]returns.ReturnDTO, error)
	UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refundAmount *decimal.Decimal) (*returns.ReturnDTO, error)
}

const returnDependency = "returns service"

// AdminReturns lists return requests, optionally by status.
func AdminReturns(svc returnAdmin, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, returnDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		var status *enums.ReturnStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enumValue(raw, enums.ParseReturnStatus, "status filter")
			if err != nil {
				return fail(err)
			}
			status = &parsed
		}
		return ok(svc.List(r.Context(), status))
	})
}

type returnStatusRequest struct {
	Status       string           `json:"status" validate:"required"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty" validate:"omitempty,money"`
}

// AdminReturnStatus approves, rejects or refunds a return.
func AdminReturnStatus(svc returnAdmin, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, returnDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		returnID, err := uuidParam(r, "returnId", "return id")
		if err != nil {
			return fail(err)
		}
		payload, err := decode[returnStatusRequest](r)
		if err != nil {
			return fail(err)
		}
		status, err := enumValue(payload.Status, enums.ParseReturnStatus, "return status")
		if err != nil {
			return fail(err)
		}
		return ok(svc.UpdateStatus(r.Context(), returnID, status, payload.RefundAmount))
	})
}
