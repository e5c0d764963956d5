package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

// Service manages the item catalogue. Reservation and sale movements go
// through the stock ledger instead.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.InventoryItem, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.InventoryItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.InventoryItem], error)
	// AdjustStock overwrites the available counter after a physical count.
	AdjustStock(ctx context.Context, id uuid.UUID, available int) (*models.InventoryItem, error)
}

type CreateInput struct {
	Name              string
	Category          string
	PricingOptions    types.PricingOptions
	AvailableStock    int
	CostPrice         decimal.Decimal
	LowStockThreshold *int
}

type UpdateInput struct {
	Name              *string
	Category          *string
	PricingOptions    *types.PricingOptions
	CostPrice         *decimal.Decimal
	LowStockThreshold *int
}

type service struct {
	repo            *Repository
	defaultLowStock int
}

func NewService(repo *Repository, defaultLowStock int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if defaultLowStock < 0 {
		defaultLowStock = 0
	}
	return &service{repo: repo, defaultLowStock: defaultLowStock}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.InventoryItem, error) {
	threshold := s.defaultLowStock
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	item := &models.InventoryItem{
		Name:              strings.TrimSpace(input.Name),
		Category:          strings.TrimSpace(input.Category),
		PricingOptions:    normalizeOptions(input.PricingOptions),
		AvailableStock:    input.AvailableStock,
		ReservedStock:     0,
		CostPrice:         input.CostPrice,
		LowStockThreshold: threshold,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, item.Category); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory item")
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.InventoryItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		item.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		item.Category = strings.TrimSpace(*input.Category)
		if err := s.ensureCategory(ctx, item.Category); err != nil {
			return nil, err
		}
	}
	if input.PricingOptions != nil {
		item.PricingOptions = normalizeOptions(*input.PricingOptions)
	}
	if input.CostPrice != nil {
		item.CostPrice = *input.CostPrice
	}
	if input.LowStockThreshold != nil {
		item.LowStockThreshold = *input.LowStockThreshold
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDetails(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory item")
	}
	return item, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.ReservedStock > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "item has reserved stock on open orders").
			WithDetails(map[string]any{"reservedStock": item.ReservedStock})
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete inventory item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.InventoryItem], error) {
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return page, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "list inventory")
	}
	return page, nil
}

func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, available int) (*models.InventoryItem, error) {
	if available < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available stock cannot be negative")
	}
	affected, err := s.repo.AdjustAvailable(ctx, id, available)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
	}
	return s.Get(ctx, id)
}

func (s *service) ensureCategory(ctx context.Context, name string) error {
	ok, err := s.repo.CategoryExists(ctx, name)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category").
			WithDetails(map[string]string{"category": name})
	}
	return nil
}

func normalizeOptions(opts types.PricingOptions) types.PricingOptions {
	out := make(types.PricingOptions, 0, len(opts))
	for _, opt := range opts {
		opt.ID = strings.TrimSpace(opt.ID)
		opt.Name = strings.TrimSpace(opt.Name)
		opt.Unit = strings.TrimSpace(opt.Unit)
		out = append(out, opt)
	}
	return out
}

func validateItem(item *models.InventoryItem) error {
	details := map[string]string{}
	if item.Name == "" {
		details["name"] = "is required"
	}
	if item.Category == "" {
		details["category"] = "is required"
	}
	if item.AvailableStock < 0 {
		details["availableStock"] = "cannot be negative"
	}
	if item.CostPrice.IsNegative() {
		details["costPrice"] = "cannot be negative"
	}
	if item.LowStockThreshold < 0 {
		details["lowStockThreshold"] = "cannot be negative"
	}
	if len(item.PricingOptions) == 0 {
		details["pricingOptions"] = "at least one option is required"
	}
	seen := map[string]struct{}{}
	for i, opt := range item.PricingOptions {
		key := fmt.Sprintf("pricingOptions[%d]", i)
		switch {
		case opt.ID == "":
			details[key] = "id is required"
		case opt.Price.IsNegative():
			details[key] = "price cannot be negative"
		default:
			if _, dup := seen[opt.ID]; dup {
				details[key] = "duplicate option id"
			}
		}
		seen[opt.ID] = struct{}{}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid inventory item").WithDetails(details)
	}
	return nil
}
