package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists inventory records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	LockCandidates(ctx context.Context, variantID uuid.UUID, locationID *uuid.UUID, minQty int) ([]models.InventoryRecord, error)
	DecrementIfAvailable(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	SetQuantity(ctx context.Context, id uuid.UUID, qty int) (int64, error)
	Upsert(ctx context.Context, record *models.InventoryRecord) error
	List(ctx context.Context, filters ListFilters, threshold int) ([]RecordView, error)
	CountBelow(ctx context.Context, threshold int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds an inventory repository to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// LockCandidates loads the records of a variant holding at least minQty units.
// On Postgres the rows stay locked until the surrounding transaction ends.
func (r *repository) LockCandidates(ctx context.Context, variantID uuid.UUID, locationID *uuid.UUID, minQty int) ([]models.InventoryRecord, error) {
	query := r.db.WithContext(ctx).
		Where("variant_id = ? AND quantity >= ?", variantID, minQty)
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}
	if db.IsPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var records []models.InventoryRecord
	if err := query.Order("location_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) DecrementIfAvailable(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) SetQuantity(ctx context.Context, id uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// Upsert inserts the record or overwrites the quantity of the existing
// (location, variant) pair. record is reloaded so it carries the stored id.
func (r *repository) Upsert(ctx context.Context, record *models.InventoryRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(record).Error
	if err != nil {
		return err
	}

	var stored models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("location_id = ? AND variant_id = ?", record.LocationID, record.VariantID).
		First(&stored).Error; err != nil {
		return err
	}
	*record = stored
	return nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, threshold int) ([]RecordView, error) {
	query := r.db.WithContext(ctx).
		Table("inventory_records AS ir").
		Select(`ir.id, ir.location_id, l.name AS location_name, l.type AS location_type,
			ir.variant_id, pv.product_id, p.name AS product_name, pv.size, pv.color,
			ir.quantity, ir.updated_at`).
		Joins("JOIN locations l ON l.id = ir.location_id").
		Joins("JOIN product_variants pv ON pv.id = ir.variant_id").
		Joins("JOIN products p ON p.id = pv.product_id")
	if filters.LocationID != nil {
		query = query.Where("ir.location_id = ?", *filters.LocationID)
	}
	if filters.VariantID != nil {
		query = query.Where("ir.variant_id = ?", *filters.VariantID)
	}
	if filters.LowStockOnly {
		query = query.Where("ir.quantity < ?", threshold)
	}

	var rows []RecordView
	if err := query.Order("ir.updated_at DESC, ir.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountBelow(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("quantity < ?", threshold).
		Count(&count).Error
	return count, err
}
