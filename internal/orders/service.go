package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/internal/stock"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/metrics"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

const expireBatchSize = 200

// Service exposes order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Order], error)
	Fulfill(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Order, error)
	BulkFulfill(ctx context.Context, memberUID uuid.UUID, orderIDs []uuid.UUID) ([]models.Order, error)
	ExpireStale(ctx context.Context, cutoff time.Time) (ExpireResult, error)

	// LoadTx reads an order in any status within tx.
	LoadTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	// LoadPendingTx returns an order that must still be pending, read within tx.
	LoadPendingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	// FulfillTx and CancelTx run a transition inside a caller-owned transaction.
	FulfillTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	CancelTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string) (*models.Order, error)
}

type ServiceParams struct {
	Repo    Repository
	Ledger  StockLedger
	Members MemberAccounts
	Catalog ItemCatalog
	Tx      txRunner
	Metrics *metrics.POSMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	repo    Repository
	ledger  StockLedger
	members MemberAccounts
	catalog ItemCatalog
	tx      txRunner
	metrics *metrics.POSMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member accounts required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("item catalog required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		ledger:  params.Ledger,
		members: params.Members,
		catalog: params.Catalog,
		tx:      params.Tx,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.DealerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealer id required")
	}
	if _, err := s.members.Get(ctx, input.MemberUID); err != nil {
		return nil, err
	}

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
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory items")
	}
	priced, err := inventory.ResolveLines(catalog, reqs)
	if err != nil {
		return nil, err
	}

	items := make(types.OrderItems, 0, len(priced))
	for _, line := range priced {
		items = append(items, types.OrderItem{
			ItemID:           line.Item.ID,
			Name:             line.Item.Name,
			Quantity:         line.Quantity,
			Price:            line.Option.Price,
			Unit:             line.Option.Unit,
			SelectedOptionID: line.Option.ID,
		})
	}

	order := &models.Order{
		MemberUID:  input.MemberUID,
		DealerID:   input.DealerID,
		Items:      items,
		TotalPrice: money.Round(items.Total()),
		Status:     enums.OrderStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.Reserve(ctx, tx, stock.FromOrderItems(items)); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "create order")
	}

	s.metrics.IncOrderTransition(string(enums.OrderStatusPending))
	logCtx := s.logg.WithOrderID(s.logg.WithMemberID(ctx, order.MemberUID.String()), order.ID.String())
	s.logg.Info(logCtx, "order created")
	return order, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Order], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return page, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "list orders")
	}
	return page, nil
}

func (s *service) Fulfill(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.fulfill(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "fulfill order")
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusFulfilled))
	return order, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.cancel(ctx, tx, id, reason)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "cancel order")
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusCancelled))
	return order, nil
}

func (s *service) BulkFulfill(ctx context.Context, memberUID uuid.UUID, orderIDs []uuid.UUID) ([]models.Order, error) {
	if memberUID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member uid required")
	}
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order id is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate order id").
				WithDetails(map[string]any{"orderId": id})
		}
		seen[id] = struct{}{}
	}

	out := make([]models.Order, 0, len(orderIDs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, id := range orderIDs {
			order, err := s.load(ctx, repo, id)
			if err != nil {
				return err
			}
			if order.MemberUID != memberUID {
				return pkgerrors.New(pkgerrors.CodeValidation, "order belongs to another member").
					WithDetails(map[string]any{"orderId": id})
			}
			fulfilled, err := s.fulfill(ctx, tx, id)
			if err != nil {
				return err
			}
			out = append(out, *fulfilled)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "bulk fulfill orders")
	}
	for range out {
		s.metrics.IncOrderTransition(string(enums.OrderStatusFulfilled))
	}
	return out, nil
}

// ExpireStale cancels pending orders created before cutoff. Each order is
// cancelled in its own transaction so one failure does not block the rest.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time) (ExpireResult, error) {
	var result ExpireResult
	rows, err := s.repo.FindPendingBefore(ctx, cutoff, expireBatchSize)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale orders")
	}
	result.Scanned = len(rows)

	var errs error
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		_, err := s.Cancel(ctx, row.ID, CancelReasonExpired)
		switch {
		case err == nil:
			result.Cancelled++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict):
			// Transitioned by someone else between the scan and the cancel.
		default:
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", row.ID, err))
			s.logg.Error(s.logg.WithOrderID(ctx, row.ID.String()), "failed to expire order", err)
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"scanned":   result.Scanned,
		"cancelled": result.Cancelled,
		"failed":    result.Failed,
	})
	s.logg.Info(logCtx, "stale order sweep complete")
	return result, errs
}

func (s *service) LoadTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	return s.load(ctx, s.repo.WithTx(tx), id)
}

func (s *service) LoadPendingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, err := s.LoadTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending").
			WithDetails(map[string]any{"status": order.Status})
	}
	return order, nil
}

func (s *service) FulfillTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, err := s.fulfill(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusFulfilled))
	return order, nil
}

func (s *service) CancelTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string) (*models.Order, error) {
	order, err := s.cancel(ctx, tx, id, reason)
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderTransition(string(enums.OrderStatusCancelled))
	return order, nil
}

func (s *service) fulfill(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	order, err := s.load(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, enums.OrderStatusFulfilled) {
		return nil, transitionError(order.Status, enums.OrderStatusFulfilled)
	}

	now := s.now().UTC()
	if err := s.transition(ctx, repo, order, enums.OrderStatusFulfilled, map[string]any{"fulfilled_at": now}); err != nil {
		return nil, err
	}
	if err := s.ledger.Fulfill(ctx, tx, stock.FromOrderItems(order.Items)); err != nil {
		return nil, err
	}
	if err := s.members.RecordPurchase(ctx, tx, order.MemberUID, order.TotalPrice); err != nil {
		return nil, err
	}
	order.Status = enums.OrderStatusFulfilled
	order.FulfilledAt = &now
	return order, nil
}

func (s *service) cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	order, err := s.load(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, enums.OrderStatusCancelled) {
		return nil, transitionError(order.Status, enums.OrderStatusCancelled)
	}

	now := s.now().UTC()
	updates := map[string]any{"cancelled_at": now}
	var reasonPtr *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		updates["cancel_reason"] = trimmed
		reasonPtr = &trimmed
	}
	if err := s.transition(ctx, repo, order, enums.OrderStatusCancelled, updates); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, tx, stock.FromOrderItems(order.Items)); err != nil {
		return nil, err
	}
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelReason = reasonPtr
	return order, nil
}

func (s *service) transition(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus, updates map[string]any) error {
	affected, err := repo.UpdateStatus(ctx, order.ID, order.Status, to, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if affected == 0 {
		return transitionError(order.Status, to)
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
				WithDetails(map[string]any{"orderId": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
