package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository persists catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateProduct inserts the product header without its variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Create(product).Error
}

// CreateVariant inserts one variant.
func (r *Repository) CreateVariant(ctx context.Context, variant *models.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

// LocationIDs returns which of the provided ids exist.
func (r *Repository) LocationIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	found := make(map[uuid.UUID]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("id IN ?", ids).
		Pluck("id", &rows).Error; err != nil {
		return nil, err
	}
	for _, id := range rows {
		found[id] = struct{}{}
	}
	return found, nil
}

// FindByID loads a product and its variants.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.withVariants(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct writes the editable product columns.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(product).
		Select("name", "description", "price", "category", "brand", "images", "updated_at").
		Omit("Variants").
		Updates(product)
	return result.RowsAffected, result.Error
}

// List pages through products newest first.
func (r *Repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Product, *pagination.Cursor, error) {
	query := r.withVariants(r.db.WithContext(ctx)).Model(&models.Product{})

	var rows []models.Product
	if err := pagination.Newest(query, cursor, limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Page(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}

func (r *Repository) withVariants(q *gorm.DB) *gorm.DB {
	return q.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("size ASC, color ASC")
	})
}
