package locations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository handles location persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to location operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new location row.
func (r *Repository) Create(ctx context.Context, location *models.Location) error {
	if location == nil {
		return fmt.Errorf("location is required")
	}
	return r.DB(ctx).Create(location).Error
}

// FindByID loads a location by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return repo.FindOne[models.Location](r.DB(ctx), "id = ?", id)
}

// List returns every location ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	err := r.DB(ctx).Order("name ASC").Order("id ASC").Find(&locations).Error
	return locations, err
}

// Update writes the mutable columns of the location.
func (r *Repository) Update(ctx context.Context, location *models.Location) error {
	if location == nil {
		return fmt.Errorf("location is required")
	}
	return r.DB(ctx).
		Model(&models.Location{}).
		Where("id = ?", location.ID).
		Updates(map[string]any{
			"name":    location.Name,
			"type":    location.Type,
			"address": location.Address,
		}).Error
}
