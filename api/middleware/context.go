package middleware

import (
	"context"
	"net/http"

	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorName contextKey = "actor_name"
)

// ActorIDFromContext returns the authenticated staff member resolved by Auth.
func ActorIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	v, ok := ctx.Value(ctxActorID).(int64)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

func ActorNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorName).(string); ok {
		return v
	}
	return ""
}

// WithActorID injects the actor identifier into the context.
func WithActorID(ctx context.Context, actorID int64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActorID, actorID)
}

// RequireActor returns the actor id or an unauthorized error for handlers behind Auth.
func RequireActor(r *http.Request) (int64, error) {
	id, ok := ActorIDFromContext(r.Context())
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	return id, nil
}
