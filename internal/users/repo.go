package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository stores accounts in the users table. Emails are stored already
// normalized, so lookups compare them verbatim.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, acct NewAccount) (*models.User, error) {
	user := acct.Build()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return repo.FindOne[models.User](r.DB(ctx), "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return repo.FindOne[models.User](r.DB(ctx), "id = ?", id)
}

// ListStaff returns every non-customer account, newest first.
func (r *Repository) ListStaff(ctx context.Context) ([]models.User, error) {
	var staff []models.User
	err := r.DB(ctx).Where("role IN ?", []enums.UserRole{enums.UserRoleEmployee, enums.UserRoleAdmin}).
		Order("created_at DESC").
		Find(&staff).Error
	return staff, err
}

// RecordLogin stamps last_login_at and, when newHash is set, swaps in the
// upgraded password hash in the same statement.
func (r *Repository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, newHash string) error {
	cols := map[string]any{"last_login_at": at}
	if newHash != "" {
		cols["password_hash"] = newHash
	}
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(cols).Error
}
