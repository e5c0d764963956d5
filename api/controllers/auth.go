package controllers

import (
	"net/http"

	"github.com/angelmondragon/dispensary-pos/api/middleware"
	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/auth"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

const tokenHeader = "X-POS-Token"

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

type sessionView struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// SessionID is the access token jti the refresh session is bound to.
	SessionID string `json:"sessionId"`
}

// SessionCurrent echoes the authenticated caller.
func SessionCurrent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		responses.WriteSuccess(w, sessionView{
			UserID:    middleware.UserIDFromContext(ctx),
			Username:  middleware.UsernameFromContext(ctx),
			Role:      middleware.RoleFromContext(ctx).String(),
			SessionID: middleware.AccessIDFromContext(ctx),
		})
	}
}

// SessionRefresh rotates the refresh token and issues a new access token.
// The presented access token may be expired.
func SessionRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := validators.ParseBearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), token, body.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, pair.AccessToken)
		responses.WriteSuccess(w, pair)
	}
}

// SessionLogout revokes the refresh session tied to the presented access token.
func SessionLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		token, err := validators.ParseBearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Logout(r.Context(), token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
