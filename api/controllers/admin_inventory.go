package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type inventoryAdmin interface {
	List(ctx context.Context, filters inventory.ListFilters) ([]inventory.RecordView, error)
	SetQuantity(ctx context.Context, recordID uuid.UUID, qty int) (*models.InventoryRecord, error)
}

const inventoryDependency = "inventory service"

// AdminInventory lists stock rows joined with their product and location.
func AdminInventory(svc inventoryAdmin, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, inventoryDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		filters := inventory.ListFilters{LowStockOnly: validators.ParseQueryBool(r, "low_stock")}
		var err error
		if filters.LocationID, err = validators.ParseQueryUUID(r, "location_id"); err != nil {
			return fail(err)
		}
		if filters.VariantID, err = validators.ParseQueryUUID(r, "variant_id"); err != nil {
			return fail(err)
		}
		return ok(svc.List(r.Context(), filters))
	})
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type inventoryRecordResponse struct {
	ID         uuid.UUID `json:"id"`
	LocationID uuid.UUID `json:"location_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	Quantity   int       `json:"quantity"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AdminInventorySet overwrites the on-hand count of one stock row.
func AdminInventorySet(svc inventoryAdmin, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, svc != nil, inventoryDependency, func(_ http.ResponseWriter, r *http.Request) (int, any, error) {
		recordID, err := uuidParam(r, "inventoryId", "inventory id")
		if err != nil {
			return fail(err)
		}
		payload, err := decode[setQuantityRequest](r)
		if err != nil {
			return fail(err)
		}
		record, err := svc.SetQuantity(r.Context(), recordID, *payload.Quantity)
		if err != nil {
			return fail(err)
		}
		return http.StatusOK, inventoryRecordResponse{
			ID:         record.ID,
			LocationID: record.LocationID,
			VariantID:  record.VariantID,
			Quantity:   record.Quantity,
			UpdatedAt:  record.UpdatedAt,
		}, nil
	})
}
