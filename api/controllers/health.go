package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/garagehub/procurement-backend/api/responses"
	"github.com/garagehub/procurement-backend/pkg/config"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
)

const envHeader = "X-Garage-Env"

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

// Dependency names a pinger for readiness reporting.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency; a nil pinger is reported as skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := false
		for _, dep := range deps {
			if dep.Pinger == nil {
				checks[dep.Name] = "skipped"
				continue
			}
			if err := dep.Pinger.Ping(ctx); err != nil {
				failed = true
				checks[dep.Name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", dep.Name), "health.ready.dependency_down", err)
				}
				continue
			}
			checks[dep.Name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
