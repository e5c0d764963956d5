package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/settings"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type settingsUpdateRequest struct {
	CompanyName   *string          `json:"companyName" validate:"omitempty,max=255"`
	Address       *string          `json:"address"`
	Phone         *string          `json:"phone" validate:"omitempty,max=32"`
	Email         *string          `json:"email" validate:"omitempty,email"`
	TaxRate       *decimal.Decimal `json:"taxRate"`
	VATRate       *decimal.Decimal `json:"vatRate"`
	Currency      *string          `json:"currency" validate:"omitempty,len=3"`
	InvoicePrefix *string          `json:"invoicePrefix" validate:"omitempty,max=16"`
}

func SettingsGet(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings"))
			return
		}
		row, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func SettingsUpdate(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("settings"))
			return
		}
		var body settingsUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Update(r.Context(), settings.UpdateInput{
			CompanyName:   body.CompanyName,
			Address:       body.Address,
			Phone:         body.Phone,
			Email:         body.Email,
			TaxRate:       body.TaxRate,
			VATRate:       body.VATRate,
			Currency:      body.Currency,
			InvoicePrefix: body.InvoicePrefix,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
