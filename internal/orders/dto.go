package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	ChannelOnline = "online"
	ChannelPOS    = "pos"
)

// CartLine is one line submitted for placement. Price is the unit price the
// caller charged; it is stored as-is and not re-read from the catalog.
type CartLine struct {
	VariantID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// CustomerDetails identifies a guest or walk-in buyer.
type CustomerDetails struct {
	Name  string
	Email string
}

func (c *CustomerDetails) present() bool {
	return c != nil && (strings.TrimSpace(c.Name) != "" || strings.TrimSpace(c.Email) != "")
}

// RecipientDetails names the person receiving a gift or third-party order.
type RecipientDetails struct {
	Name  string
	Phone string
}

// PlacementOptions carries the channel context of a placement.
type PlacementOptions struct {
	LocationID      *uuid.UUID
	Customer        *CustomerDetails
	PaymentMethod   enums.PaymentMethod
	OrderType       enums.OrderType
	Recipient       *RecipientDetails
	PaymentProvider *string
	ShippingAddress *types.Address
	BillingAddress  *types.Address
}

// Channel reports pos when the order originates at a location.
func (o PlacementOptions) Channel() string {
	if o.LocationID != nil {
		return ChannelPOS
	}
	return ChannelOnline
}

// PlaceOrderInput is the full request of a placement.
type PlaceOrderInput struct {
	Items       []CartLine
	TotalAmount decimal.Decimal
	Options     PlacementOptions
}

// PlaceOrderResult is returned after commit.
type PlaceOrderResult struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderItemDTO is an order line joined with its variant and product.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          *uuid.UUID          `json:"user_id,omitempty"`
	UserEmail       *string             `json:"user_email,omitempty"`
	LocationID      *uuid.UUID          `json:"location_id,omitempty"`
	CustomerName    *string             `json:"customer_name,omitempty"`
	CustomerEmail   *string             `json:"customer_email,omitempty"`
	Status          enums.OrderStatus   `json:"status"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	PaymentProvider *string             `json:"payment_provider,omitempty"`
	TransactionID   *string             `json:"transaction_id,omitempty"`
	OrderType       enums.OrderType     `json:"order_type"`
	RecipientName   *string             `json:"recipient_name,omitempty"`
	RecipientPhone  *string             `json:"recipient_phone,omitempty"`
	ShippingAddress *types.Address      `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address      `json:"billing_address,omitempty"`
	IsReturnable    bool                `json:"is_returnable"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Items           []OrderItemDTO      `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ListFilters narrows the admin order listing.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	LocationID    *uuid.UUID
}

// Stats is the aggregate shown on the admin dashboard.
type Stats struct {
	TotalOrders  int64           `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type variantInfo struct {
	VariantID   uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Size        string
	Color       string
}

func mapOrder(order models.Order, variants map[uuid.UUID]variantInfo, emails map[uuid.UUID]string) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		LocationID:      order.LocationID,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.CustomerEmail,
		Status:          order.Status,
		PaymentStatus:   order.PaymentStatus,
		PaymentMethod:   order.PaymentMethod,
		PaymentProvider: order.PaymentProvider,
		TransactionID:   order.TransactionID,
		OrderType:       order.OrderType,
		RecipientName:   order.RecipientName,
		RecipientPhone:  order.RecipientPhone,
		ShippingAddress: order.ShippingAddress,
		BillingAddress:  order.BillingAddress,
		IsReturnable:    order.IsReturnable,
		TotalAmount:     order.TotalAmount,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if order.UserID != nil {
		if email, ok := emails[*order.UserID]; ok {
			dto.UserEmail = &email
		}
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			ID:        item.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		}
		if info, ok := variants[item.VariantID]; ok {
			productID := info.ProductID
			line.ProductID = &productID
			line.ProductName = info.ProductName
			line.Size = info.Size
			line.Color = info.Color
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
