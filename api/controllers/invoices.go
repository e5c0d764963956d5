package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/invoices"
	"github.com/angelmondragon/dispensary-pos/pkg/db/models"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type invoiceItemRequest struct {
	ItemID           uuid.UUID `json:"itemId" validate:"required"`
	Quantity         int       `json:"quantity" validate:"gt=0"`
	SelectedOptionID string    `json:"selectedOptionId" validate:"max=64"`
	Description      string    `json:"description" validate:"max=255"`
}

type invoiceCreateRequest struct {
	OrderID       *uuid.UUID           `json:"orderId"`
	MemberUID     *uuid.UUID           `json:"memberUid"`
	CustomerName  string               `json:"customerName" validate:"max=255"`
	CustomerEmail *string              `json:"customerEmail" validate:"omitempty,email"`
	Items         []invoiceItemRequest `json:"items" validate:"omitempty,dive"`
}

type sendInvoiceRequest struct {
	InvoiceID uuid.UUID `json:"invoiceId" validate:"required"`
	Email     string    `json:"email" validate:"omitempty,email"`
}

// InvoiceCreate bills a pending order or a free list of items.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoices"))
			return
		}
		var body invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]invoices.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, invoices.ItemInput{
				ItemID:           item.ItemID,
				Quantity:         item.Quantity,
				SelectedOptionID: item.SelectedOptionID,
				Description:      item.Description,
			})
		}
		invoice, err := svc.Create(r.Context(), invoices.CreateInput{
			OrderID:       body.OrderID,
			MemberUID:     body.MemberUID,
			CustomerName:  body.CustomerName,
			CustomerEmail: body.CustomerEmail,
			Items:         items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoices"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filters invoices.ListFilters
		if filters.MemberUID, err = validators.ParseQueryUUID(r, "memberUid"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.OrderID, err = validators.ParseQueryUUID(r, "orderId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
			status, err := enums.ParseInvoiceStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice status"))
				return
			}
			filters.Status = &status
		}
		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(svc, logg, invoices.Service.Get)
}

// InvoiceMarkPaid settles an issued invoice and fulfils its stock.
func InvoiceMarkPaid(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(svc, logg, invoices.Service.MarkPaid)
}

// InvoiceVoid voids an issued invoice and releases its stock.
func InvoiceVoid(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return invoiceAction(svc, logg, invoices.Service.Void)
}

// InvoiceSend emails an invoice. email falls back to the customer's address.
func InvoiceSend(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoices"))
			return
		}
		var body sendInvoiceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Send(r.Context(), body.InvoiceID, body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type invoiceFunc func(invoices.Service, context.Context, uuid.UUID) (*models.Invoice, error)

// invoiceAction handles the /{id} routes that only need the invoice id.
func invoiceAction(svc invoices.Service, logg *logger.Logger, action invoiceFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("invoices"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := action(svc, r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
