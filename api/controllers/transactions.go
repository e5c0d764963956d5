package controllers

import (
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/api/middleware"
	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/totals"
	"github.com/angelmondragon/dispensary-pos/internal/transactions"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type saleItemRequest struct {
	ItemID           uuid.UUID `json:"itemId" validate:"required"`
	Quantity         int       `json:"quantity" validate:"gt=0"`
	SelectedOptionID string    `json:"selectedOptionId" validate:"max=64"`
}

type discountRequest struct {
	Mode       enums.DiscountMode `json:"mode" validate:"omitempty,oneof=none member custom_amount custom_percentage"`
	Amount     decimal.Decimal    `json:"amount"`
	Percentage decimal.Decimal    `json:"percentage"`
}

type saleRequest struct {
	MemberUID *uuid.UUID        `json:"memberUid"`
	Items     []saleItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount  discountRequest   `json:"discount"`
	// DiscountSteps are the register's discount actions in the order they
	// were taken.
	DiscountSteps []discountRequest   `json:"discountSteps" validate:"omitempty,max=20,dive"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod" validate:"omitempty,oneof=cash card transfer"`
	Comment       *string             `json:"comment" validate:"omitempty,max=500"`
}

func (req saleRequest) input(dealer uuid.UUID) transactions.CreateInput {
	items := make([]transactions.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, transactions.ItemInput{
			ItemID:           item.ItemID,
			Quantity:         item.Quantity,
			SelectedOptionID: item.SelectedOptionID,
		})
	}
	return transactions.CreateInput{
		MemberUID:     req.MemberUID,
		DealerID:      dealer,
		Items:         items,
		Discount:      req.discount(),
		PaymentMethod: req.PaymentMethod,
		Comment:       req.Comment,
	}
}

// discount replays the discount steps, then the top-level discount if it has
// a mode. Member and custom discounts exclude each other; the last one wins.
func (req saleRequest) discount() transactions.DiscountInput {
	steps := req.DiscountSteps
	if req.Discount.Mode != "" {
		steps = append(slices.Clip(steps), req.Discount)
	}
	var state totals.DiscountState
	for _, step := range steps {
		switch step.Mode {
		case enums.DiscountModeMember:
			// the tier rate is looked up when the sale is priced
			state.ApplyMember(decimal.Zero)
		case enums.DiscountModeCustomAmount:
			state.ApplyCustomAmount(step.Amount)
		case enums.DiscountModeCustomPercentage:
			state.ApplyCustomPercentage(step.Percentage)
		default:
			state.Clear()
		}
	}
	chosen := state.Discount()
	return transactions.DiscountInput{
		Mode:       chosen.Mode,
		Amount:     chosen.Amount,
		Percentage: chosen.Percentage,
	}
}

// TransactionCreate records a counter sale by the authenticated dealer.
func TransactionCreate(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transactions"))
			return
		}
		dealer, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		var body saleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.PaymentMethod == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment method required"))
			return
		}
		txn, err := svc.Create(r.Context(), body.input(dealer))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// TransactionQuote prices a cart without touching stock.
func TransactionQuote(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transactions"))
			return
		}
		var body saleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealer, _ := middleware.ActorID(r.Context())
		quote, err := svc.Quote(r.Context(), body.input(dealer))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// TransactionList filters by ?memberUid=, ?dealerId=, ?paymentMethod=, ?from= and ?to=.
func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transactions"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := transactionFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func transactionFilters(r *http.Request) (transactions.ListFilters, error) {
	var filters transactions.ListFilters
	var err error
	if filters.MemberUID, err = validators.ParseQueryUUID(r, "memberUid"); err != nil {
		return filters, err
	}
	if filters.DealerID, err = validators.ParseQueryUUID(r, "dealerId"); err != nil {
		return filters, err
	}
	if filters.From, err = validators.ParseQueryTime(r, "from"); err != nil {
		return filters, err
	}
	if filters.To, err = validators.ParseQueryTime(r, "to"); err != nil {
		return filters, err
	}
	if raw := validators.SanitizeString(r.URL.Query().Get("paymentMethod"), 32); raw != "" {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
		}
		filters.PaymentMethod = &method
	}
	return filters, nil
}

func TransactionGet(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transactions"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// TransactionDelete removes the record only; stock and member totals stay.
func TransactionDelete(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("transactions"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
