package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// RecordView is an inventory row joined with its variant, product and location.
type RecordView struct {
	ID           uuid.UUID          `json:"id"`
	LocationID   uuid.UUID          `json:"location_id"`
	LocationName string             `json:"location_name"`
	LocationType enums.LocationType `json:"location_type"`
	VariantID    uuid.UUID          `json:"variant_id"`
	ProductID    uuid.UUID          `json:"product_id"`
	ProductName  string             `json:"product_name"`
	Size         string             `json:"size"`
	Color        string             `json:"color"`
	Quantity     int                `json:"quantity"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ListFilters narrows the admin inventory listing.
type ListFilters struct {
	LocationID   *uuid.UUID
	VariantID    *uuid.UUID
	LowStockOnly bool
}
