package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
)

// Repository persists the single company_settings row.
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

// Find returns gorm.ErrRecordNotFound when the row was never written.
func (r *Repository) Find(ctx context.Context) (*models.CompanySettings, error) {
	var row models.CompanySettings
	if err := r.db.WithContext(ctx).Where("id = ?", models.CompanySettingsID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Upsert(ctx context.Context, row *models.CompanySettings) error {
	row.ID = models.CompanySettingsID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
}
