package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
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

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var row models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIDs returns the rows keyed by id; unknown ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error) {
	out := make(map[uuid.UUID]models.InventoryItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// UpdateDetails writes descriptive columns only. Stock counters are owned by
// the stock ledger and AdjustAvailable.
func (r *Repository) UpdateDetails(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":                item.Name,
		"category":            item.Category,
		"pricing_options":     item.PricingOptions,
		"cost_price":          item.CostPrice,
		"low_stock_threshold": item.LowStockThreshold,
	}).Error
}

func (r *Repository) AdjustAvailable(ctx context.Context, id uuid.UUID, available int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_stock = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, available, id)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InventoryItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) CategoryExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type ListFilters struct {
	Category string
	Search   string
	LowStock bool
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.InventoryItem], error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if category := strings.TrimSpace(filters.Category); category != "" {
		q = q.Where("category = ?", category)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if filters.LowStock {
		q = q.Where("available_stock <= low_stock_threshold")
	}

	q, err := pagination.Apply(q, params, "created_at", "id")
	if err != nil {
		return pagination.Page[models.InventoryItem]{}, err
	}
	var rows []models.InventoryItem
	if err := q.Find(&rows).Error; err != nil {
		return pagination.Page[models.InventoryItem]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(i models.InventoryItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	}), nil
}
