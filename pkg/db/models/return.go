package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Return is a customer's request to send back part of an order.
type Return struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID      uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	Status       enums.ReturnStatus `gorm:"column:status;type:text;not null;default:REQUESTED"`
	Reason       string             `gorm:"column:reason;not null"`
	RefundAmount *decimal.Decimal   `gorm:"column:refund_amount;type:numeric(12,2)"`
	Items        []ReturnItem       `gorm:"foreignKey:ReturnID"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Return) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type ReturnItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID    uuid.UUID `gorm:"column:return_id;type:uuid;not null;index"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null;check:chk_return_items_quantity,quantity > 0"`
}

func (i *ReturnItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
