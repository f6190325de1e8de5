package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the header row of a sale. TotalAmount is fixed at creation.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	LocationID      *uuid.UUID          `gorm:"column:location_id;type:uuid"`
	CustomerName    *string             `gorm:"column:customer_name"`
	CustomerEmail   *string             `gorm:"column:customer_email"`
	Status          enums.OrderStatus   `gorm:"column:status;type:text;not null;default:PENDING"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:PENDING"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:ONLINE"`
	PaymentProvider *string             `gorm:"column:payment_provider"`
	TransactionID   *string             `gorm:"column:transaction_id"`
	OrderType       enums.OrderType     `gorm:"column:order_type;type:text;not null;default:SELF"`
	RecipientName   *string             `gorm:"column:recipient_name"`
	RecipientPhone  *string             `gorm:"column:recipient_phone"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb"`
	BillingAddress  *types.Address      `gorm:"column:billing_address;type:jsonb"`
	IsReturnable    bool                `gorm:"column:is_returnable;not null;default:true"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;check:chk_orders_total,total_amount >= 0"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// IsPOS reports whether the order was rung up at a physical location.
func (o Order) IsPOS() bool {
	return o.LocationID != nil
}
