package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shoplane/storefront-core/api/responses"
	"github.com/shoplane/storefront-core/pkg/config"
	pkgerrors "github.com/shoplane/storefront-core/pkg/errors"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/logger"
)

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady verifies the session storage backend round-trips.
func HealthReady(cfg *config.Config, logg *logger.Logger, store kv.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		probe := "healthcheck"
		if err := store.Set(ctx, probe, time.Now().UTC().Format(time.RFC3339)); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "session storage unavailable"))
			return
		}
		if _, err := store.Get(ctx, probe); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "session storage unavailable"))
			return
		}

		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
