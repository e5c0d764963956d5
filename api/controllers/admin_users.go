package controllers

import (
	"net/http"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/users"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

// AdminUserCreate provisions a back-office account.
func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var body users.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
