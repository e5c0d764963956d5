package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *models.Category) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("name", name).Error
}

// RetagItems moves inventory items from one category name to another.
func (r *Repository) RetagItems(ctx context.Context, from, to string) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("category = ?", from).Update("category", to).Error
}

func (r *Repository) CountItems(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("category = ?", name).Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{}).Error
}
