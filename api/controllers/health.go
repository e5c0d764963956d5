package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/pkg/config"
	"github.com/angelmondragon/dispensary-pos/pkg/db"
	pkgerrors "github.com/angelmondragon/dispensary-pos/pkg/errors"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-POS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings Postgres and Redis concurrently.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-POS-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]db.Pinger{"postgres": database, "redis": cache}
		g, gctx := errgroup.WithContext(ctx)
		for name, pinger := range checks {
			if pinger == nil {
				continue
			}
			g.Go(func() error {
				if err := pinger.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
						WithDetails(map[string]any{"dependency": name})
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
