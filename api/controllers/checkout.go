package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, input orders.PlaceOrderInput) (*orders.PlaceOrderResult, error)
}

const placementDependency = "order placement"

// Checkout places an online order. Guests may check out by sending customer
// details instead of a bearer token.
func Checkout(svc orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, placementDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		payload, err := decode[placementRequest](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.PlaceOrder(r.Context(), payload.toInput(nil)))
	})
}

// POSOrder places an in-store sale drawn from a single location.
func POSOrder(svc orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, placementDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		payload, err := decode[posOrderRequest](r)
		if err != nil {
			return fail(err)
		}
		return created(svc.PlaceOrder(r.Context(), payload.toInput(&payload.LocationID)))
	})
}

type cartLineRequest struct {
	VariantID uuid.UUID       `json:"variant_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	Price     decimal.Decimal `json:"price" validate:"money"`
}

type customerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

type recipientRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type placementRequest struct {
	Items           []cartLineRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount     decimal.Decimal   `json:"total_amount" validate:"money"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
	OrderType       string            `json:"order_type,omitempty"`
	Customer        *customerRequest  `json:"customer,omitempty"`
	Recipient       *recipientRequest `json:"recipient,omitempty"`
	PaymentProvider *string           `json:"payment_provider,omitempty"`
	ShippingAddress *types.Address    `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address    `json:"billing_address,omitempty"`
}

type posOrderRequest struct {
	placementRequest
	LocationID uuid.UUID `json:"location_id" validate:"required"`
}

func (p placementRequest) toInput(locationID *uuid.UUID) orders.PlaceOrderInput {
	items := make([]orders.CartLine, 0, len(p.Items))
	for _, line := range p.Items {
		items = append(items, orders.CartLine{
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	opts := orders.PlacementOptions{
		LocationID:      locationID,
		PaymentMethod:   enums.PaymentMethod(strings.ToUpper(strings.TrimSpace(p.PaymentMethod))),
		OrderType:       enums.OrderType(strings.ToUpper(strings.TrimSpace(p.OrderType))),
		ShippingAddress: p.ShippingAddress,
		BillingAddress:  p.BillingAddress,
	}
	if p.PaymentProvider != nil {
		if provider := strings.TrimSpace(*p.PaymentProvider); provider != "" {
			opts.PaymentProvider = &provider
		}
	}
	if p.Customer != nil {
		opts.Customer = &orders.CustomerDetails{
			Name:  strings.TrimSpace(p.Customer.Name),
			Email: strings.ToLower(strings.TrimSpace(p.Customer.Email)),
		}
	}
	if p.Recipient != nil {
		opts.Recipient = &orders.RecipientDetails{
			Name:  strings.TrimSpace(p.Recipient.Name),
			Phone: strings.TrimSpace(p.Recipient.Phone),
		}
	}

	return orders.PlaceOrderInput{
		Items:       items,
		TotalAmount: p.TotalAmount,
		Options:     opts,
	}
}
