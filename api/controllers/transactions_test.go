package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/dispensary-pos/api/middleware"
	"github.com/angelmondragon/dispensary-pos/internal/transactions"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/pagination"
)

type stubTransactions struct {
	create func(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error)
	quote  func(ctx context.Context, input transactions.CreateInput) (*transactions.Quote, error)
}

func (s *stubTransactions) Create(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error) {
	return s.create(ctx, input)
}

func (s *stubTransactions) Quote(ctx context.Context, input transactions.CreateInput) (*transactions.Quote, error) {
	return s.quote(ctx, input)
}

func (s *stubTransactions) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	panic("not implemented")
}

func (s *stubTransactions) List(ctx context.Context, params pagination.Params, filters transactions.ListFilters) (pagination.Page[models.Transaction], error) {
	panic("not implemented")
}

func (s *stubTransactions) Delete(ctx context.Context, id uuid.UUID) error {
	panic("not implemented")
}

func asDealer(req *http.Request, dealer uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), dealer.String()))
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func saleBody(itemID uuid.UUID, extra string) string {
	return `{"items":[{"itemId":"` + itemID.String() + `","quantity":2,"selectedOptionId":"gram"}]` + extra + `}`
}

func TestTransactionCreateMapsRequest(t *testing.T) {
	dealer := uuid.New()
	memberUID := uuid.New()
	itemID := uuid.New()
	var got transactions.CreateInput
	svc := &stubTransactions{
		create: func(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error) {
			got = input
			return &models.Transaction{ID: uuid.New(), PaymentMethod: input.PaymentMethod}, nil
		},
	}

	body := saleBody(itemID, `,"memberUid":"`+memberUID.String()+`","paymentMethod":"card","comment":"regular",`+
		`"discount":{"mode":"custom_percentage","percentage":15}`)
	req := asDealer(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)), dealer)
	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, dealer, got.DealerID)
	require.NotNil(t, got.MemberUID)
	assert.Equal(t, memberUID, *got.MemberUID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, transactions.ItemInput{ItemID: itemID, Quantity: 2, SelectedOptionID: "gram"}, got.Items[0])
	assert.Equal(t, enums.PaymentMethodCard, got.PaymentMethod)
	assert.Equal(t, enums.DiscountModeCustomPercentage, got.Discount.Mode)
	assert.True(t, got.Discount.Percentage.Equal(decimal.NewFromInt(15)))
	require.NotNil(t, got.Comment)
	assert.Equal(t, "regular", *got.Comment)
}

func TestTransactionCreateDefaultsDiscountToNone(t *testing.T) {
	var got transactions.CreateInput
	svc := &stubTransactions{
		create: func(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error) {
			got = input
			return &models.Transaction{ID: uuid.New()}, nil
		},
	}
	req := asDealer(httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(saleBody(uuid.New(), `,"paymentMethod":"cash"`))), uuid.New())
	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, enums.DiscountModeNone, got.Discount.Mode)
	assert.True(t, got.Discount.Amount.IsZero())
}

func TestTransactionCreateRequiresPaymentMethod(t *testing.T) {
	svc := &stubTransactions{
		create: func(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	req := asDealer(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(saleBody(uuid.New(), ""))), uuid.New())
	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "payment method required", errorBody(t, rec)["message"])
}

func TestTransactionCreateRejectsBadInput(t *testing.T) {
	itemID := uuid.New()
	cases := map[string]string{
		"unknown method": saleBody(itemID, `,"paymentMethod":"crypto"`),
		"unknown mode":   saleBody(itemID, `,"paymentMethod":"cash","discount":{"mode":"both"}`),
		"no items":       `{"items":[],"paymentMethod":"cash"}`,
		"zero quantity":  `{"items":[{"itemId":"` + itemID.String() + `","quantity":0}],"paymentMethod":"cash"}`,
		"unknown field":  saleBody(itemID, `,"paymentMethod":"cash","price":1`),
		"bad step mode":  saleBody(itemID, `,"paymentMethod":"cash","discountSteps":[{"mode":"bogus"}]`),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := asDealer(httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)), uuid.New())
			rec := httptest.NewRecorder()
			TransactionCreate(&stubTransactions{}, nil).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), errorBody(t, rec)["code"])
		})
	}
}

func TestTransactionCreateRequiresActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(saleBody(uuid.New(), `,"paymentMethod":"cash"`)))
	rec := httptest.NewRecorder()
	TransactionCreate(&stubTransactions{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTransactionCreateSurfacesShortStock(t *testing.T) {
	svc := &stubTransactions{
		create: func(ctx context.Context, input transactions.CreateInput) (*models.Transaction, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
		},
	}
	req := asDealer(httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(saleBody(uuid.New(), `,"paymentMethod":"transfer"`))), uuid.New())
	rec := httptest.NewRecorder()
	TransactionCreate(svc, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransactionQuoteSkipsPaymentMethod(t *testing.T) {
	var got transactions.CreateInput
	svc := &stubTransactions{
		quote: func(ctx context.Context, input transactions.CreateInput) (*transactions.Quote, error) {
			got = input
			return &transactions.Quote{}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/transactions/quote",
		strings.NewReader(saleBody(uuid.New(), `,"discount":{"mode":"custom_amount","amount":"12.50"}`)))
	rec := httptest.NewRecorder()
	TransactionQuote(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uuid.Nil, got.DealerID)
	assert.Empty(t, got.PaymentMethod)
	assert.Equal(t, enums.DiscountModeCustomAmount, got.Discount.Mode)
	assert.True(t, got.Discount.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestTransactionQuoteLastDiscountStepWins(t *testing.T) {
	cases := []struct {
		name  string
		extra string
		want  enums.DiscountMode
	}{
		{
			name:  "custom after member",
			extra: `,"discountSteps":[{"mode":"member"},{"mode":"custom_amount","amount":30}]`,
			want:  enums.DiscountModeCustomAmount,
		},
		{
			name:  "member after custom",
			extra: `,"discountSteps":[{"mode":"custom_percentage","percentage":10},{"mode":"member"}]`,
			want:  enums.DiscountModeMember,
		},
		{
			name:  "cleared",
			extra: `,"discountSteps":[{"mode":"member"},{"mode":"none"}]`,
			want:  enums.DiscountModeNone,
		},
		{
			name:  "top-level discount is the final step",
			extra: `,"discountSteps":[{"mode":"custom_amount","amount":30}],"discount":{"mode":"member"}`,
			want:  enums.DiscountModeMember,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got transactions.DiscountInput
			svc := &stubTransactions{
				quote: func(ctx context.Context, input transactions.CreateInput) (*transactions.Quote, error) {
					got = input.Discount
					return &transactions.Quote{}, nil
				},
			}
			rec := httptest.NewRecorder()
			TransactionQuote(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions/quote",
				strings.NewReader(saleBody(uuid.New(), tc.extra))))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, got.Mode)
		})
	}
}

func TestTransactionQuoteNilService(t *testing.T) {
	rec := httptest.NewRecorder()
	TransactionQuote(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/transactions/quote", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
