package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/internal/stock"
	"github.com/angelmondragon/dispensary-pos/internal/totals"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// Service records counter sales.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Transaction, error)
	Quote(ctx context.Context, input CreateInput) (*Quote, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Transaction], error)
	// Delete removes the record only; stock and member purchases stay as they are.
	Delete(ctx context.Context, id uuid.UUID) error
}

type StockConsumer interface {
	Consume(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
}

type MemberAccounts interface {
	RecordPurchase(ctx context.Context, tx *gorm.DB, uid uuid.UUID, amount decimal.Decimal) error
	DiscountRate(ctx context.Context, tx *gorm.DB, uid uuid.UUID) (decimal.Decimal, error)
}

type ItemCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error)
}

// TaxRates supplies the company tax rate.
type TaxRates interface {
	Get(ctx context.Context) (*models.CompanySettings, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	Stock    StockConsumer
	Members  MemberAccounts
	Catalog  ItemCatalog
	Settings TaxRates
	Tx       txRunner
	Metrics  *metrics.POSMetrics
}

type service struct {
	repo     *Repository
	stock    StockConsumer
	members  MemberAccounts
	catalog  ItemCatalog
	settings TaxRates
	tx       txRunner
	metrics  *metrics.POSMetrics
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("transactions repository required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock consumer required")
	case params.Members == nil:
		return nil, fmt.Errorf("member accounts required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("item catalog required")
	case params.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		stock:    params.Stock,
		members:  params.Members,
		catalog:  params.Catalog,
		settings: params.Settings,
		tx:       params.Tx,
		metrics:  params.Metrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Transaction, error) {
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	items, taxRate, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	var txn *models.Transaction
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.Consume(ctx, tx, stock.FromTransactionItems(items)); err != nil {
			return err
		}
		sum, err := s.compute(ctx, tx, items, input, taxRate)
		if err != nil {
			return err
		}

		txn = &models.Transaction{
			MemberUID:      input.MemberUID,
			Items:          items,
			Subtotal:       sum.Subtotal,
			DiscountMode:   sum.DiscountMode,
			DiscountRate:   sum.DiscountRate,
			DiscountAmount: sum.DiscountAmount,
			TaxRate:        sum.TaxRate,
			TaxAmount:      sum.TaxAmount,
			FinalTotal:     sum.FinalTotal,
			PaymentMethod:  input.PaymentMethod,
			DealerID:       input.DealerID,
			Comment:        trimOptional(input.Comment),
		}
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}
		if input.MemberUID != nil {
			return s.members.RecordPurchase(ctx, tx, *input.MemberUID, txn.FinalTotal)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "create transaction")
	}

	s.metrics.ObserveSale(txn.FinalTotal.InexactFloat64())
	return txn, nil
}

func (s *service) Quote(ctx context.Context, input CreateInput) (*Quote, error) {
	items, taxRate, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	sum, err := s.compute(ctx, nil, items, input, taxRate)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: items, Totals: sum}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Transaction], error) {
	if filters.PaymentMethod != nil && !filters.PaymentMethod.IsValid() {
		return pagination.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return pagination.Page[models.Transaction]{}, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return page, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "list transactions")
	}
	return page, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete transaction")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	return nil
}

// prepare prices the requested lines and reads the current tax rate.
func (s *service) prepare(ctx context.Context, input CreateInput) (types.TransactionItems, decimal.Decimal, error) {
	reqs := make([]inventory.LineRequest, 0, len(input.Items))
	for _, item := range input.Items {
		reqs = append(reqs, inventory.LineRequest{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			OptionID: strings.TrimSpace(item.SelectedOptionID),
		})
	}
	catalog, err := s.catalog.FindByIDs(ctx, inventory.RequestedIDs(reqs))
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory items")
	}
	priced, err := inventory.ResolveLines(catalog, reqs)
	if err != nil {
		return nil, decimal.Zero, err
	}

	items := make(types.TransactionItems, 0, len(priced))
	for _, line := range priced {
		items = append(items, types.TransactionItem{
			ItemID:   line.Item.ID,
			Name:     line.Item.Name,
			Quantity: line.Quantity,
			Price:    line.Option.Price,
			ItemCost: line.Item.CostPrice,
			Unit:     line.Option.Unit,
		})
	}

	company, err := s.settings.Get(ctx)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return items, company.TaxRate, nil
}

// compute resolves the discount and returns rounded totals. tx may be nil
// for quotes.
func (s *service) compute(ctx context.Context, tx *gorm.DB, items types.TransactionItems, input CreateInput, taxRate decimal.Decimal) (totals.Totals, error) {
	discount := totals.Discount{
		Mode:       input.Discount.Mode,
		Amount:     input.Discount.Amount,
		Percentage: input.Discount.Percentage,
	}
	if discount.Mode == enums.DiscountModeMember {
		if input.MemberUID == nil {
			return totals.Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "member discount requires a member")
		}
		rate, err := s.members.DiscountRate(ctx, tx, *input.MemberUID)
		if err != nil {
			return totals.Totals{}, err
		}
		discount.MemberRate = rate
	}

	lines := make([]totals.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, totals.Line{Price: item.Price, Quantity: item.Quantity})
	}
	sum, err := totals.Compute(lines, discount, taxRate)
	if err != nil {
		return totals.Totals{}, err
	}
	return sum.Rounded(), nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
