package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const transactionPrefix = "txn_"

// BuildOrder maps placement input onto an order header. It performs no I/O;
// newRef supplies the random part of synthetic transaction references.
func BuildOrder(total decimal.Decimal, opts PlacementOptions, identity *auth.Identity, newRef func() string) models.Order {
	order := models.Order{
		LocationID:    opts.LocationID,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodOnline,
		OrderType:     enums.OrderTypeSelf,
		IsReturnable:  true,
		TotalAmount:   total,
	}
	if opts.LocationID != nil {
		order.Status = enums.OrderStatusDelivered
		order.PaymentStatus = enums.PaymentStatusPaid
	}
	if opts.PaymentMethod != "" {
		order.PaymentMethod = opts.PaymentMethod
	}
	if identity != nil {
		userID := identity.UserID
		order.UserID = &userID
	}
	if opts.Customer != nil {
		order.CustomerName = optionalString(opts.Customer.Name)
		order.CustomerEmail = optionalString(opts.Customer.Email)
	}

	if opts.OrderType != "" {
		order.OrderType = opts.OrderType
	}
	if order.OrderType != enums.OrderTypeSelf && opts.Recipient != nil {
		order.RecipientName = optionalString(opts.Recipient.Name)
		order.RecipientPhone = optionalString(opts.Recipient.Phone)
	}

	if opts.ShippingAddress != nil {
		shipping := opts.ShippingAddress.Normalized()
		order.ShippingAddress = &shipping
	}
	if opts.BillingAddress != nil {
		billing := opts.BillingAddress.Normalized()
		order.BillingAddress = &billing
	}

	if provider := optionalString(derefString(opts.PaymentProvider)); provider != nil {
		order.PaymentProvider = provider
		if newRef != nil {
			ref := transactionPrefix + newRef()
			order.TransactionID = &ref
		}
	}
	return order
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
