package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository persists returns and reads the orders they reference.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ReturnedQuantities(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error)
	Create(ctx context.Context, ret *models.Return) error
	FindByID(ctx context.Context, returnID uuid.UUID) (*models.Return, error)
	UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refund *decimal.Decimal) error
	List(ctx context.Context, status *enums.ReturnStatus) ([]models.Return, error)
	OrderSummaries(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]orderSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ReturnedQuantities sums the units already claimed per order item by returns
// that were not rejected.
func (r *repository) ReturnedQuantities(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		OrderItemID uuid.UUID
		Total       int
	}
	err := r.db.WithContext(ctx).
		Table("return_items AS ri").
		Select("ri.order_item_id, SUM(ri.quantity) AS total").
		Joins("JOIN returns rt ON rt.id = ri.return_id").
		Where("rt.order_id = ? AND rt.status <> ?", orderID, enums.ReturnStatusRejected).
		Group("ri.order_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.OrderItemID] = row.Total
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, ret *models.Return) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *repository) FindByID(ctx context.Context, returnID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", returnID).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) UpdateStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus, refund *decimal.Decimal) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if refund != nil {
		updates["refund_amount"] = *refund
	}
	return r.db.WithContext(ctx).
		Model(&models.Return{}).
		Where("id = ?", returnID).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, status *enums.ReturnStatus) ([]models.Return, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Return
	err := query.Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) OrderSummaries(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]orderSummary, error) {
	out := make(map[uuid.UUID]orderSummary, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []orderSummary
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.id AS order_id, o.total_amount, u.email AS user_email, o.customer_email").
		Joins("LEFT JOIN users u ON u.id = o.user_id").
		Where("o.id IN ?", orderIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrderID] = row
	}
	return out, nil
}
