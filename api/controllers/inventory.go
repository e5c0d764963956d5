package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/inventory"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
	"github.com/angelmondragon/dispensary-pos/pkg/types"
)

type inventoryCreateRequest struct {
	Name              string               `json:"name" validate:"required,max=255"`
	Category          string               `json:"category" validate:"required,max=64"`
	PricingOptions    types.PricingOptions `json:"pricingOptions" validate:"required,min=1"`
	AvailableStock    int                  `json:"availableStock" validate:"gte=0"`
	CostPrice         decimal.Decimal      `json:"costPrice"`
	LowStockThreshold *int                 `json:"lowStockThreshold" validate:"omitempty,gte=0"`
}

type inventoryUpdateRequest struct {
	Name              *string               `json:"name" validate:"omitempty,max=255"`
	Category          *string               `json:"category" validate:"omitempty,max=64"`
	PricingOptions    *types.PricingOptions `json:"pricingOptions"`
	CostPrice         *decimal.Decimal      `json:"costPrice"`
	LowStockThreshold *int                  `json:"lowStockThreshold" validate:"omitempty,gte=0"`
}

type stockAdjustRequest struct {
	AvailableStock *int `json:"availableStock" validate:"required,gte=0"`
}

// InventoryList supports ?category=, ?q= and ?lowStock=true.
func InventoryList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowStock, err := validators.ParseQueryBool(r, "lowStock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), params, inventory.ListFilters{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), 64),
			Search:   validators.SanitizeString(r.URL.Query().Get("q"), 128),
			LowStock: lowStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func InventoryGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryCreate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		var body inventoryCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Create(r.Context(), inventory.CreateInput{
			Name:              body.Name,
			Category:          body.Category,
			PricingOptions:    body.PricingOptions,
			AvailableStock:    body.AvailableStock,
			CostPrice:         body.CostPrice,
			LowStockThreshold: body.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func InventoryUpdate(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), id, inventory.UpdateInput{
			Name:              body.Name,
			Category:          body.Category,
			PricingOptions:    body.PricingOptions,
			CostPrice:         body.CostPrice,
			LowStockThreshold: body.LowStockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func InventoryDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
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

// InventoryAdjustStock sets the available counter after a physical count.
func InventoryAdjustStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("inventory"))
			return
		}
		id, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.AdjustStock(r.Context(), id, *body.AvailableStock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}
