package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderPlacedLine is one stock movement made by a placement.
type OrderPlacedLine struct {
	OrderItemID uuid.UUID       `json:"order_item_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	LocationID  uuid.UUID       `json:"location_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// OrderPlacedEvent is emitted once per committed order.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	LocationID    *uuid.UUID          `json:"location_id,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Lines         []OrderPlacedLine   `json:"lines"`
}

// OrderStatusChangedEvent is emitted when staff move an order along.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
}

// OrderPaymentOverriddenEvent is emitted when an admin marks an order paid by hand.
type OrderPaymentOverriddenEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Status        enums.OrderStatus   `json:"status"`
}

// ReturnRequestedLine is one order item the customer wants to send back.
type ReturnRequestedLine struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Quantity    int       `json:"quantity"`
}

// ReturnRequestedEvent is emitted when a customer opens a return.
type ReturnRequestedEvent struct {
	ReturnID uuid.UUID             `json:"return_id"`
	OrderID  uuid.UUID             `json:"order_id"`
	Reason   string                `json:"reason"`
	Lines    []ReturnRequestedLine `json:"lines"`
}

// ReturnStatusChangedEvent is emitted on every review decision and refund.
type ReturnStatusChangedEvent struct {
	ReturnID       uuid.UUID          `json:"return_id"`
	OrderID        uuid.UUID          `json:"order_id"`
	PreviousStatus enums.ReturnStatus `json:"previous_status"`
	Status         enums.ReturnStatus `json:"status"`
	RefundAmount   *decimal.Decimal   `json:"refund_amount,omitempty"`
}

// InventoryAdjustedEvent is emitted by administrative stock corrections.
type InventoryAdjustedEvent struct {
	RecordID         uuid.UUID `json:"record_id"`
	LocationID       uuid.UUID `json:"location_id"`
	VariantID        uuid.UUID `json:"variant_id"`
	PreviousQuantity int       `json:"previous_quantity"`
	Quantity         int       `json:"quantity"`
}
