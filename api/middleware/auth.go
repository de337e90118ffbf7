package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/garagehub/procurement-backend/api/responses"
	pkgAuth "github.com/garagehub/procurement-backend/pkg/auth"
	"github.com/garagehub/procurement-backend/pkg/config"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the acting staff member.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithActorID(r.Context(), claims.ActorID)
			if claims.DisplayName != "" {
				ctx = context.WithValue(ctx, ctxActorName, claims.DisplayName)
			}
			if logg != nil {
				ctx = logg.WithActorID(ctx, claims.ActorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
