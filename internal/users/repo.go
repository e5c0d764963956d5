package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
)

// Repository persists back-office accounts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByUsername expects an already lower-cased username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.setColumn(ctx, id, "last_login_at", at)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash)
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*models.AdminUser, error) {
	user := new(models.AdminUser)
	if err := r.db.WithContext(ctx).Where(query, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// setColumn skips hooks and updated_at; neither field is user-visible state.
func (r *Repository) setColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	return r.db.WithContext(ctx).Model(&models.AdminUser{}).Where("id = ?", id).UpdateColumn(column, value).Error
}
