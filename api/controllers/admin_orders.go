package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type adminOrderService interface {
	List(ctx context.Context, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error)
	OverridePayment(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error)
}

const orderDependency = "orders service"

// AdminDashboard returns the back-office headline numbers.
func AdminDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, "dashboard service", func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		return ok(svc.Stats(r.Context()))
	})
}

// AdminOrders pages through every order with optional filters.
func AdminOrders(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		page, err := pageParams(r)
		if err != nil {
			return fail(err)
		}
		filters, err := parseOrderFilters(r)
		if err != nil {
			return fail(err)
		}
		return ok(svc.List(r.Context(), page, filters))
	})
}

// AdminOrderDetail returns any order by id.
func AdminOrderDetail(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		orderID, err := uuidParam(r, "orderId", "order id")
		if err != nil {
			return fail(err)
		}
		return ok(svc.Get(r.Context(), orderID))
	})
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderStatus moves an order to a new fulfillment status.
func AdminOrderStatus(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		orderID, err := uuidParam(r, "orderId", "order id")
		if err != nil {
			return fail(err)
		}
		payload, err := decode[orderStatusRequest](r)
		if err != nil {
			return fail(err)
		}
		status, err := enumValue(payload.Status, enums.ParseOrderStatus, "order status")
		if err != nil {
			return fail(err)
		}
		return ok(svc.UpdateStatus(r.Context(), orderID, status))
	})
}

// AdminOrderPaymentOverride marks an unpaid order as paid by hand.
func AdminOrderPaymentOverride(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, orderDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		orderID, err := uuidParam(r, "orderId", "order id")
		if err != nil {
			return fail(err)
		}
		return ok(svc.OverridePayment(r.Context(), orderID))
	})
}

func parseOrderFilters(r *http.Request) (orders.ListFilters, error) {
	var filters orders.ListFilters
	query := r.URL.Query()

	if raw := query.Get("status"); raw != "" {
		status, err := enumValue(raw, enums.ParseOrderStatus, "status filter")
		if err != nil {
			return filters, err
		}
		filters.Status = &status
	}
	if raw := query.Get("payment_status"); raw != "" {
		status, err := enumValue(raw, enums.ParsePaymentStatus, "payment status filter")
		if err != nil {
			return filters, err
		}
		filters.PaymentStatus = &status
	}
	locationID, err := validators.ParseQueryUUID(r, "location_id")
	if err != nil {
		return filters, err
	}
	filters.LocationID = locationID
	return filters, nil
}
