package orders

import (
	"context"
	"net/http"

	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/api/responses"
	"github.com/garagehub/procurement-backend/api/validators"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
)

type transitionFunc func(context.Context, purchaseorders.TransitionInput) (any, error)

// Ship marks a confirmed order as handed to the carrier.
func Ship(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(ctx context.Context, input purchaseorders.TransitionInput) (any, error) {
		return svc.Ship(ctx, input)
	})
}

// Deliver closes an in-transit order and merges its lines into inventory.
func Deliver(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(ctx context.Context, input purchaseorders.TransitionInput) (any, error) {
		return svc.Deliver(ctx, input)
	})
}

// Cancel abandons a pending order without an active payment.
func Cancel(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(ctx context.Context, input purchaseorders.TransitionInput) (any, error) {
		return svc.Cancel(ctx, input)
	})
}

func transitionHandler(svc purchaseorders.Service, logg *logger.Logger, apply transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}
		actorID, err := middleware.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID)
		result, err := apply(ctx, purchaseorders.TransitionInput{ActorID: actorID, OrderID: orderID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
