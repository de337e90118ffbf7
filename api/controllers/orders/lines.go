package orders

import (
	"net/http"

	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/api/responses"
	"github.com/garagehub/procurement-backend/api/validators"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
)

type addLineRequest struct {
	CatalogItemID int64 `json:"catalog_item_id" validate:"required,gt=0"`
	Qty           int   `json:"qty" validate:"required,gt=0,max=2147483647"`
}

type updateLineRequest struct {
	Qty int `json:"qty" validate:"required,gt=0,max=2147483647"`
}

// AddLine reserves catalog stock and appends a line to a pending order.
func AddLine(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req addLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := logg.WithOrderID(r.Context(), orderID)
		result, err := svc.AddLine(ctx, purchaseorders.AddLineInput{
			ActorID:       actorID,
			OrderID:       orderID,
			CatalogItemID: req.CatalogItemID,
			Qty:           req.Qty,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// UpdateLine moves a line to a new quantity, reserving or releasing the difference.
func UpdateLine(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
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
		lineID, err := validators.ParsePathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateLineQuantity(r.Context(), purchaseorders.UpdateLineQuantityInput{
			ActorID: actorID,
			LineID:  lineID,
			Qty:     req.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RemoveLine drops a line from a pending order and returns its stock to the catalog item.
func RemoveLine(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
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
		lineID, err := validators.ParsePathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RemoveLine(r.Context(), purchaseorders.RemoveLineInput{
			ActorID: actorID,
			LineID:  lineID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
