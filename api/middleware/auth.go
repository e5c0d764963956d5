package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	pkgAuth "github.com/angelmondragon/dispensary-pos/pkg/auth"
	"github.com/angelmondragon/dispensary-pos/pkg/auth/session"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

// Auth admits requests carrying a valid access token whose session still
// exists in Redis, so logout and refresh revoke the old token immediately.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), logg, claims)))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (*pkgAuth.AccessTokenClaims, error) {
	token, err := validators.ParseBearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier == nil {
		return claims, nil
	}
	ok, err := verifier.HasSession(r.Context(), claims.ID)
	switch {
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	case !ok:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or revoked")
	}
	return claims, nil
}

func withActor(ctx context.Context, logg *logger.Logger, claims *pkgAuth.AccessTokenClaims) context.Context {
	userID := claims.UserID.String()
	ctx = WithUserID(ctx, userID)
	ctx = WithRole(ctx, claims.Role)
	ctx = context.WithValue(ctx, ctxUsername, claims.Username)
	ctx = context.WithValue(ctx, ctxAccessID, claims.ID)
	if logg != nil {
		ctx = logg.WithUserID(ctx, userID)
		ctx = logg.WithActorRole(ctx, claims.Role.String())
	}
	return ctx
}
