package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type totalsRow struct {
	Count     int64
	Gross     decimal.Decimal
	Discounts decimal.Decimal
	Tax       decimal.Decimal
	Collected decimal.Decimal
}

func (r *Repository) inRange(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("created_at >= ? AND created_at < ?", from, to)
}

func (r *Repository) Totals(ctx context.Context, from, to time.Time) (totalsRow, error) {
	var row totalsRow
	err := r.inRange(ctx, from, to).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(subtotal), 0) AS gross,
			COALESCE(SUM(discount_amount), 0) AS discounts,
			COALESCE(SUM(tax_amount), 0) AS tax,
			COALESCE(SUM(final_total), 0) AS collected`).
		Scan(&row).Error
	return row, err
}

func (r *Repository) ByPaymentMethod(ctx context.Context, from, to time.Time) ([]PaymentBucket, error) {
	var rows []PaymentBucket
	err := r.inRange(ctx, from, to).
		Select("payment_method AS method, COUNT(*) AS count, COALESCE(SUM(final_total), 0) AS total").
		Group("payment_method").
		Order("payment_method").
		Scan(&rows).Error
	return rows, err
}

// LineItems returns the item arrays of every transaction in range. Line
// arithmetic stays in Go so the query is portable across drivers.
func (r *Repository) LineItems(ctx context.Context, from, to time.Time) ([]types.TransactionItems, error) {
	var rows []models.Transaction
	if err := r.inRange(ctx, from, to).Select("items").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.TransactionItems, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Items)
	}
	return out, nil
}
