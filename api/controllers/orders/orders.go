package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/api/middleware"
	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	internalorders "github.com/angelmondragon/dispensary-pos/internal/orders"
	"github.com/angelmondragon/dispensary-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type orderItemRequest struct {
	ItemID           uuid.UUID `json:"itemId" validate:"required"`
	Quantity         int       `json:"quantity" validate:"gt=0"`
	SelectedOptionID string    `json:"selectedOptionId" validate:"max=64"`
}

type createOrderRequest struct {
	MemberUID uuid.UUID          `json:"memberUid" validate:"required"`
	Items     []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type bulkFulfillRequest struct {
	MemberUID uuid.UUID   `json:"memberUid" validate:"required"`
	OrderIDs  []uuid.UUID `json:"orderIds" validate:"required,min=1,max=100"`
}

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
}

// List returns order pages filtered by ?status=, ?memberUid=, ?dealerId=, ?from= and ?to=.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
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

// Detail returns a single order with its reserved lines.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Create reserves stock for a member order placed by the authenticated dealer.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		dealer, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}
		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]internalorders.ItemInput, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, internalorders.ItemInput{
				ItemID:           item.ItemID,
				Quantity:         item.Quantity,
				SelectedOptionID: item.SelectedOptionID,
			})
		}
		order, err := svc.Create(r.Context(), internalorders.CreateInput{
			MemberUID: body.MemberUID,
			DealerID:  dealer,
			Items:     items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Fulfill(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Fulfill(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Cancel releases the reservation. The body is optional.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		orderID, err := validators.URLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		order, err := svc.Cancel(r.Context(), orderID, strings.TrimSpace(body.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// BulkFulfill fulfills several pending orders of one member atomically.
func BulkFulfill(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		var body bulkFulfillRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fulfilled, err := svc.BulkFulfill(r.Context(), body.MemberUID, body.OrderIDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"memberUid": body.MemberUID,
			"orders":    fulfilled,
		})
	}
}

func buildFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters
	var err error
	if raw := validators.SanitizeString(r.URL.Query().Get("status"), 32); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToLower(raw))
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
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
	if filters.From != nil && filters.To != nil && !filters.From.Before(*filters.To) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	return filters, nil
}
