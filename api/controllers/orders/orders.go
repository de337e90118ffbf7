package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/api/responses"
	"github.com/garagehub/procurement-backend/api/validators"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

const deliveryDateLayout = "2006-01-02"

type createOrderRequest struct {
	SupplierID            int64   `json:"supplier_id" validate:"required,gt=0"`
	RequestedDeliveryDate *string `json:"requested_delivery_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes                 *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Create opens a new pending purchase order against an active supplier.
func Create(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var requested *time.Time
		if req.RequestedDeliveryDate != nil {
			parsed, err := time.Parse(deliveryDateLayout, strings.TrimSpace(*req.RequestedDeliveryDate))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requested_delivery_date"))
				return
			}
			requested = &parsed
		}

		order, err := svc.CreateOrder(r.Context(), purchaseorders.CreateOrderInput{
			ActorID:               actorID,
			SupplierID:            req.SupplierID,
			RequestedDeliveryDate: requested,
			Notes:                 req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// Detail returns the order header with its lines and current payment.
func Detail(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}
		orderID, err := validators.ParsePathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(logg.WithOrderID(r.Context(), orderID), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// List pages through orders newest first, optionally filtered by state and supplier.
func List(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		list, err := svc.ListOrders(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func buildListFilters(r *http.Request) (purchaseorders.ListFilters, error) {
	var filters purchaseorders.ListFilters
	query := r.URL.Query()

	if raw := strings.ToLower(strings.TrimSpace(query.Get("state"))); raw != "" {
		state, err := enums.ParseOrderState(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid state filter").WithDetails(map[string]any{"field": "state"})
		}
		filters.State = &state
	}

	supplierID, err := validators.ParseQueryID(r, "supplier_id")
	if err != nil {
		return filters, err
	}
	filters.SupplierID = supplierID
	return filters, nil
}
