package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
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

func (r *Repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var row models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountNumbersWithPrefix counts invoices whose number starts with prefix.
func (r *Repository) CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// CountOpenForOrder counts issued or paid invoices billing the order.
func (r *Repository) CountOpenForOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("order_id = ? AND status <> ?", orderID, enums.InvoiceStatusVoid).
		Count(&count).Error
	return count, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.InvoiceStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	return res.RowsAffected, res.Error
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Invoice], error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.MemberUID != nil {
		q = q.Where("member_uid = ?", *filters.MemberUID)
	}
	if filters.OrderID != nil {
		q = q.Where("order_id = ?", *filters.OrderID)
	}

	q, err := pagination.Apply(q, params, "created_at", "id")
	if err != nil {
		return pagination.Page[models.Invoice]{}, err
	}
	var rows []models.Invoice
	if err := q.Find(&rows).Error; err != nil {
		return pagination.Page[models.Invoice]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(i models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	}), nil
}
