package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/returns"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type customerOrderReader interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]orders.OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDTO, error)
}

type returnRequester interface {
	RequestReturn(ctx context.Context, identity *pkgAuth.Identity, orderID uuid.UUID, items []returns.ReturnLine, reason string) (*returns.ReturnDTO, error)
}

// MyOrders lists the caller's orders, newest first.
func MyOrders(svc customerOrderReader, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		userID, err := callerID(r)
		if err != nil {
			return fail(err)
		}
		return ok(svc.ListForUser(r.Context(), userID))
	})
}

// MyOrderDetail returns one of the caller's orders.
func MyOrderDetail(svc customerOrderReader, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		userID, err := callerID(r)
		if err != nil {
			return fail(err)
		}
		orderID, err := uuidParam(r, "orderId", "order id")
		if err != nil {
			return fail(err)
		}
		return ok(svc.GetForUser(r.Context(), userID, orderID))
	})
}

const maxReasonLen = 1000

type returnLineRequest struct {
	OrderItemID uuid.UUID `json:"order_item_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"gt=0"`
}

type returnRequest struct {
	Items  []returnLineRequest `json:"items" validate:"required,min=1,dive"`
	Reason string              `json:"reason"`
}

// RequestReturn opens a return against one of the caller's orders. Guests
// reach it without an identity and are rejected by the service.
func RequestReturn(svc returnRequester, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, returnDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		orderID, err := uuidParam(r, "orderId", "order id")
		if err != nil {
			return fail(err)
		}
		payload, err := decode[returnRequest](r)
		if err != nil {
			return fail(err)
		}

		var identity *pkgAuth.Identity
		if id, found := pkgAuth.IdentityFromContext(r.Context()); found {
			identity = &id
		}
		lines := make([]returns.ReturnLine, len(payload.Items))
		for i, item := range payload.Items {
			lines[i] = returns.ReturnLine{OrderItemID: item.OrderItemID, Quantity: item.Quantity}
		}
		return created(svc.RequestReturn(r.Context(), identity, orderID, lines, validators.SanitizeString(payload.Reason, maxReasonLen)))
	})
}
