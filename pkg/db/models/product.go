package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Stock is tracked per variant.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Category    *string          `gorm:"column:category"`
	Brand       *string          `gorm:"column:brand"`
	Images      []string         `gorm:"column:images;type:jsonb;serializer:json;not null"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is the sellable unit (size and color of a product).
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Size      string    `gorm:"column:size;not null"`
	Color     string    `gorm:"column:color;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
