package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRecord is the on-hand count of one variant at one location.
type InventoryRecord struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;not null;uniqueIndex:uq_inventory_location_variant"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:uq_inventory_location_variant;index"`
	Quantity   int       `gorm:"column:quantity;not null;default:0;check:chk_inventory_quantity,quantity >= 0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *InventoryRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
