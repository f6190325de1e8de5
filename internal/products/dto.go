package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CreateProductInput holds the payload to create a product with its variants
// and their opening stock.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Category    *string         `json:"category,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Images      []string        `json:"images"`
	Variants    []VariantInput  `json:"variants" validate:"dive"`
}

// VariantInput describes one sellable size/color combination.
type VariantInput struct {
	Size      string       `json:"size" validate:"required"`
	Color     string       `json:"color" validate:"required"`
	Inventory []StockInput `json:"inventory" validate:"dive"`
}

// StockInput is the opening quantity of a variant at one location.
type StockInput struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gte=0"`
}

// UpdateProductInput carries the editable product fields. Variants are not
// touched by updates.
type UpdateProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Category    *string         `json:"category,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Images      []string        `json:"images"`
}

// VariantDTO is the public view of a product variant.
type VariantDTO struct {
	ID    uuid.UUID `json:"id"`
	Size  string    `json:"size"`
	Color string    `json:"color"`
}

// ProductDTO is the public view of a catalog product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Category    *string         `json:"category,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Images      []string        `json:"images"`
	Variants    []VariantDTO    `json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductList is a page of products plus the cursor for the next page.
type ProductList struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// NewProductDTO maps the persisted product and its preloaded variants.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	variants := make([]VariantDTO, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantDTO{ID: v.ID, Size: v.Size, Color: v.Color})
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Brand:       p.Brand,
		Images:      images,
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
