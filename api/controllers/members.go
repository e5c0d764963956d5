package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/members"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

type memberCreateRequest struct {
	CardNumber string  `json:"cardNumber" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Tier       string  `json:"tier" validate:"required"`
}

type memberUpdateRequest struct {
	CardNumber *string `json:"cardNumber" validate:"omitempty,max=64"`
	Name       *string `json:"name" validate:"omitempty,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Tier       *string `json:"tier"`
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// MemberList returns a page of members filtered by ?q= and ?tier=.
func MemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := members.ListFilters{
			Search: validators.SanitizeString(r.URL.Query().Get("q"), 128),
			Tier:   validators.SanitizeString(r.URL.Query().Get("tier"), 64),
		}
		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func MemberCreate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		var body memberCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Create(r.Context(), members.CreateInput{
			CardNumber: body.CardNumber,
			Name:       body.Name,
			Phone:      body.Phone,
			Email:      body.Email,
			Tier:       body.Tier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

func MemberGet(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		uid, err := validators.URLParamUUID(r, "uid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Get(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// MemberByCard looks a member up by the number printed on their card.
func MemberByCard(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		card, err := validators.URLParam(r, "cardNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.GetByCardNumber(r.Context(), card)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func MemberUpdate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		uid, err := validators.URLParamUUID(r, "uid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body memberUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.Update(r.Context(), uid, members.UpdateInput{
			CardNumber: body.CardNumber,
			Name:       body.Name,
			Phone:      body.Phone,
			Email:      body.Email,
			Tier:       body.Tier,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

func MemberDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		uid, err := validators.URLParamUUID(r, "uid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), uid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func TierList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		tiers, err := svc.ListTiers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tiers)
	}
}

type tierRequest struct {
	Rate *decimal.Decimal `json:"rate" validate:"required"`
}

// TierUpsert creates or re-rates the tier named in the path.
func TierUpsert(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		name, err := validators.URLParam(r, "name")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body tierRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tier, err := svc.UpsertTier(r.Context(), name, *body.Rate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tier)
	}
}

func TierDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("members"))
			return
		}
		name, err := validators.URLParam(r, "name")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteTier(r.Context(), name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
