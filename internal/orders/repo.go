package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	LocationExists(ctx context.Context, locationID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	List(ctx context.Context, params listParams) ([]models.Order, *pagination.Cursor, error)
	Recent(ctx context.Context, limit int) ([]models.Order, error)
	Stats(ctx context.Context) (Stats, error)
	UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error)
	VariantInfo(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]variantInfo, error)
	UserEmails(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

type listParams struct {
	Limit   int
	Cursor  *pagination.Cursor
	Filters ListFilters
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) LocationExists(ctx context.Context, locationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("id = ?", locationID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) preloadItems(query *gorm.DB) *gorm.DB {
	return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no ASC")
	})
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloadItems(r.db.WithContext(ctx)).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloadItems(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.preloadItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) List(ctx context.Context, params listParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.preloadItems(r.db.WithContext(ctx)).Model(&models.Order{})
	if params.Filters.Status != nil {
		query = query.Where("status = ?", *params.Filters.Status)
	}
	if params.Filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.Filters.PaymentStatus)
	}
	if params.Filters.LocationID != nil {
		query = query.Where("location_id = ?", *params.Filters.LocationID)
	}

	var orders []models.Order
	if err := pagination.Newest(query, params.Cursor, params.Limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(orders, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) Stats(ctx context.Context) (Stats, error) {
	var row struct {
		Count   int64
		Revenue decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS count, SUM(total_amount) AS revenue").
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{TotalOrders: row.Count, TotalRevenue: decimal.Zero}
	if row.Revenue.Valid {
		stats.TotalRevenue = row.Revenue.Decimal
	}
	return stats, nil
}

func (r *repository) UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error) {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) VariantInfo(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]variantInfo, error) {
	out := make(map[uuid.UUID]variantInfo, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	var rows []variantInfo
	err := r.db.WithContext(ctx).
		Table("product_variants AS pv").
		Select("pv.id AS variant_id, pv.product_id, p.name AS product_name, pv.size, pv.color").
		Joins("JOIN products p ON p.id = pv.product_id").
		Where("pv.id IN ?", variantIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.VariantID] = row
	}
	return out, nil
}

func (r *repository) UserEmails(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Select("id", "email").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		out[user.ID] = user.Email
	}
	return out, nil
}

func statusUpdate(status enums.OrderStatus) map[string]any {
	return map[string]any{"status": status}
}

func paymentOverrideUpdate() map[string]any {
	return map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"payment_method": enums.PaymentMethodManualOverride,
		"status":         enums.OrderStatusProcessing,
	}
}
