package invoices

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/internal/stock"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/mailer"
	"github.com/angelmondragon/dispensary-pos/pkg/money"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

const (
	maxNumberAttempts = 5
	voidCancelReason  = "invoice voided"
)

// Service issues and settles invoices.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Invoice], error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Void(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	// Send emails the invoice to email, or to the stored customer email when
	// email is empty.
	Send(ctx context.Context, id uuid.UUID, email string) (*models.Invoice, error)
}

// OrderLinks is the slice of the orders service used for linked invoices.
type OrderLinks interface {
	LoadTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	LoadPendingTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	FulfillTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	CancelTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string) (*models.Order, error)
}

type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
	Release(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
	Fulfill(ctx context.Context, tx *gorm.DB, lines []stock.Line) error
}

type MemberAccounts interface {
	Get(ctx context.Context, uid uuid.UUID) (*models.Member, error)
	RecordPurchase(ctx context.Context, tx *gorm.DB, uid uuid.UUID, amount decimal.Decimal) error
}

type ItemCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.InventoryItem, error)
}

type CompanySettings interface {
	Get(ctx context.Context) (*models.CompanySettings, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo     *Repository
	Orders   OrderLinks
	Ledger   StockLedger
	Members  MemberAccounts
	Catalog  ItemCatalog
	Settings CompanySettings
	// Mailer may be nil; Send then fails with a dependency error.
	Mailer Mailer
	Tx     txRunner
	Logger *logger.Logger
	Now    func() time.Time
}

type service struct {
	repo     *Repository
	orders   OrderLinks
	ledger   StockLedger
	members  MemberAccounts
	catalog  ItemCatalog
	settings CompanySettings
	mailer   Mailer
	tx       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("invoices repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders service required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Members == nil:
		return nil, fmt.Errorf("member accounts required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("item catalog required")
	case params.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		ledger:   params.Ledger,
		members:  params.Members,
		catalog:  params.Catalog,
		settings: params.Settings,
		mailer:   params.Mailer,
		tx:       params.Tx,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if input.MemberUID != nil {
		if _, err := s.members.Get(ctx, *input.MemberUID); err != nil {
			return nil, err
		}
	}

	company, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var directItems types.InvoiceItems
	if input.OrderID == nil {
		directItems, err = s.priceItems(ctx, input.Items)
		if err != nil {
			return nil, err
		}
	}

	var invoice *models.Invoice
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		invoice, err = s.createOnce(ctx, input, company, directItems, attempt)
		if err == nil {
			break
		}
		// invoice_number is the only unique column besides the primary key.
		if !db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "create invoice")
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt+1), "invoice number taken, retrying")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate invoice number")
	}
	return invoice, nil
}

// createOnce runs one full attempt in its own transaction. A unique
// violation aborts the transaction on Postgres, so retries start over.
func (s *service) createOnce(ctx context.Context, input CreateInput, company *models.CompanySettings, directItems types.InvoiceItems, attempt int) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items := directItems
		memberUID := input.MemberUID

		if input.OrderID != nil {
			order, err := s.orders.LoadPendingTx(ctx, tx, *input.OrderID)
			if err != nil {
				return err
			}
			open, err := repo.CountOpenForOrder(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order invoices")
			}
			if open > 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has an open invoice")
			}
			items = fromOrderItems(order.Items)
			uid := order.MemberUID
			memberUID = &uid
		} else if err := s.ledger.Reserve(ctx, tx, stock.FromInvoiceItems(items)); err != nil {
			return err
		}

		number, err := s.nextNumber(ctx, repo, company.InvoicePrefix, attempt)
		if err != nil {
			return err
		}

		subtotal, vat, total := amounts(items, company.VATRate)
		invoice = &models.Invoice{
			InvoiceNumber: number,
			Items:         items,
			Subtotal:      subtotal,
			VATRate:       company.VATRate,
			VAT:           vat,
			Total:         total,
			OrderID:       input.OrderID,
			MemberUID:     memberUID,
			CustomerName:  strings.TrimSpace(input.CustomerName),
			CustomerEmail: trimOptional(input.CustomerEmail),
			Status:        enums.InvoiceStatusIssued,
		}
		return repo.Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (pagination.Page[models.Invoice], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return pagination.Page[models.Invoice]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status")
	}
	page, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return page, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "list invoices")
	}
	return page, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		invoice, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := s.transition(ctx, repo, invoice, enums.InvoiceStatusPaid, map[string]any{"paid_at": now}); err != nil {
			return err
		}
		invoice.PaidAt = &now

		if invoice.OrderID != nil {
			return s.settleLinkedOrder(ctx, tx, *invoice.OrderID, enums.InvoiceStatusPaid)
		}
		if err := s.ledger.Fulfill(ctx, tx, stock.FromInvoiceItems(invoice.Items)); err != nil {
			return err
		}
		if invoice.MemberUID != nil {
			return s.members.RecordPurchase(ctx, tx, *invoice.MemberUID, invoice.Total)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "mark invoice paid")
	}
	return invoice, nil
}

func (s *service) Void(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		invoice, err = s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := s.transition(ctx, repo, invoice, enums.InvoiceStatusVoid, map[string]any{"voided_at": now}); err != nil {
			return err
		}
		invoice.VoidedAt = &now

		if invoice.OrderID != nil {
			return s.settleLinkedOrder(ctx, tx, *invoice.OrderID, enums.InvoiceStatusVoid)
		}
		return s.ledger.Release(ctx, tx, stock.FromInvoiceItems(invoice.Items))
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeDependency, err, "void invoice")
	}
	return invoice, nil
}

// settleLinkedOrder moves a still pending order along with its invoice. The
// order may already have been settled through the orders API or the expiry
// sweep: paying needs it fulfilled, voiding accepts either end state.
func (s *service) settleLinkedOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, to enums.InvoiceStatus) error {
	order, err := s.orders.LoadTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	switch {
	case order.Status == enums.OrderStatusPending && to == enums.InvoiceStatusPaid:
		_, err = s.orders.FulfillTx(ctx, tx, orderID)
	case order.Status == enums.OrderStatusPending:
		_, err = s.orders.CancelTx(ctx, tx, orderID, voidCancelReason)
	case to == enums.InvoiceStatusVoid, order.Status == enums.OrderStatusFulfilled:
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id":     orderID.String(),
			"order_status": order.Status,
			"invoice_to":   to,
		}), "linked order already settled")
	default:
		err = pkgerrors.New(pkgerrors.CodeStateConflict, "linked order was cancelled; void the invoice instead").
			WithDetails(map[string]any{"orderId": orderID, "orderStatus": order.Status})
	}
	return err
}

func (s *service) Send(ctx context.Context, id uuid.UUID, email string) (*models.Invoice, error) {
	if s.mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "email delivery not configured")
	}
	invoice, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == enums.InvoiceStatusVoid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "void invoices cannot be sent")
	}

	to := strings.TrimSpace(email)
	if to == "" && invoice.CustomerEmail != nil {
		to = *invoice.CustomerEmail
	}
	if to == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient email required")
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient must be a valid email")
	}

	company, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := renderMessage(company, invoice, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{"sent_at": now}
	if invoice.CustomerEmail == nil {
		updates["customer_email"] = to
		invoice.CustomerEmail = &to
	}
	if err := s.repo.MarkSent(ctx, invoice.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp invoice sent")
	}
	invoice.SentAt = &now

	logCtx := s.logg.WithFields(ctx, map[string]any{"invoice_id": invoice.ID.String(), "invoice_number": invoice.InvoiceNumber})
	s.logg.Info(logCtx, "invoice sent")
	return invoice, nil
}

func (s *service) priceItems(ctx context.Context, inputs []ItemInput) (types.InvoiceItems, error) {
	reqs := make([]inventory.LineRequest, 0, len(inputs))
	for _, in := range inputs {
		reqs = append(reqs, inventory.LineRequest{
			ItemID:   in.ItemID,
			Quantity: in.Quantity,
			OptionID: strings.TrimSpace(in.SelectedOptionID),
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

	items := make(types.InvoiceItems, 0, len(priced))
	for i, line := range priced {
		desc := strings.TrimSpace(inputs[i].Description)
		if desc == "" {
			desc = line.Item.Name
			if line.Option.Name != "" {
				desc = fmt.Sprintf("%s (%s)", line.Item.Name, line.Option.Name)
			}
		}
		items = append(items, types.InvoiceItem{
			ItemID:      line.Item.ID,
			Description: desc,
			Quantity:    line.Quantity,
			UnitPrice:   line.Option.Price,
			Unit:        line.Option.Unit,
		})
	}
	return items, nil
}

// nextNumber returns <prefix>-<YYYYMMDD>-<seq>. attempt skips sequences
// already lost to concurrent writers.
func (s *service) nextNumber(ctx context.Context, repo *Repository, prefix string, attempt int) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "INV"
	}
	day := fmt.Sprintf("%s-%s-", prefix, s.now().UTC().Format("20060102"))
	count, err := repo.CountNumbersWithPrefix(ctx, day)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invoice numbers")
	}
	return fmt.Sprintf("%s%04d", day, count+1+int64(attempt)), nil
}

func (s *service) transition(ctx context.Context, repo *Repository, invoice *models.Invoice, to enums.InvoiceStatus, updates map[string]any) error {
	if invoice.Status != enums.InvoiceStatusIssued {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not open").
			WithDetails(map[string]any{"from": invoice.Status, "to": to})
	}
	affected, err := repo.UpdateStatus(ctx, invoice.ID, enums.InvoiceStatusIssued, to, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not open").
			WithDetails(map[string]any{"from": invoice.Status, "to": to})
	}
	invoice.Status = to
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// amounts rounds subtotal and VAT separately so total = subtotal + vat.
func amounts(items types.InvoiceItems, vatRate decimal.Decimal) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount())
	}
	subtotal = money.Round(subtotal)
	vat := money.Round(subtotal.Mul(vatRate))
	return subtotal, vat, subtotal.Add(vat)
}

func fromOrderItems(items types.OrderItems) types.InvoiceItems {
	out := make(types.InvoiceItems, 0, len(items))
	for _, item := range items {
		out = append(out, types.InvoiceItem{
			ItemID:      item.ItemID,
			Description: item.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			Unit:        item.Unit,
		})
	}
	return out
}

func validateCreate(input CreateInput) error {
	details := map[string]string{}
	if strings.TrimSpace(input.CustomerName) == "" {
		details["customerName"] = "is required"
	}
	switch {
	case input.OrderID != nil && len(input.Items) > 0:
		details["items"] = "must be empty when orderId is set"
	case input.OrderID == nil && len(input.Items) == 0:
		details["items"] = "are required without orderId"
	}
	if input.CustomerEmail != nil && strings.TrimSpace(*input.CustomerEmail) != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(*input.CustomerEmail)); err != nil {
			details["customerEmail"] = "must be a valid email"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice").WithDetails(details)
	}
	return nil
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
