package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/internal/stock"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateStatus moves an order out of from; it affects zero rows when the
	// order is no longer in that status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (int64, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Order], error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// StockLedger moves reserved units for order transitions.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
	Release(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
	Fulfill(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
}

// MemberAccounts is the slice of the members service orders depend on.
type MemberAccounts interface {
	Get(ctx context.Context, uid uuid.UUID) (*models.Member, error)
	RecordPurchase(ctx context.Context, tx *gorm.DB, uid uuid.UUID, amount decimal.Decimal) error
}

// ItemCatalog resolves inventory rows for pricing.
type ItemCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
