package transactions

import (
	"context"

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

func (r *Repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var row models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	return res.RowsAffected, res.Error
}

func (r *Repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Transaction], error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if filters.MemberUID != nil {
		q = q.Where("member_uid = ?", *filters.MemberUID)
	}
	if filters.DealerID != nil {
		q = q.Where("dealer_id = ?", *filters.DealerID)
	}
	if filters.PaymentMethod != nil {
		q = q.Where("payment_method = ?", *filters.PaymentMethod)
	}
	if filters.From != nil {
		q = q.Where("created_at >= ?", *filters.From)
	}
	if filters.To != nil {
		q = q.Where("created_at < ?", *filters.To)
	}

	q, err := pagination.Apply(q, params, "created_at", "id")
	if err != nil {
		return pagination.Page[models.Transaction]{}, err
	}
	var rows []models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return pagination.Page[models.Transaction]{}, err
	}
	return pagination.Trim(rows, params.Limit, func(t models.Transaction) pagination.Cursor {
		return pagination.Cursor{CreatedAt: t.CreatedAt, ID: t.ID}
	}), nil
}
