package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Location is a warehouse or outlet that holds stock.
type Location struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name      string             `gorm:"column:name;not null"`
	Type      enums.LocationType `gorm:"column:type;type:text;not null;default:OUTLET"`
	Address   *string            `gorm:"column:address"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (l *Location) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
