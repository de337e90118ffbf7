package payments

import (
	"net/http"
	"strings"

	"github.com/garagehub/procurement-backend/api/middleware"
	"github.com/garagehub/procurement-backend/api/responses"
	"github.com/garagehub/procurement-backend/api/validators"
	internalpayments "github.com/garagehub/procurement-backend/internal/payments"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/logger"
)

const (
	verificationInstant  = "instant"
	verificationDeferred = "deferred"

	decisionApprove = "approve"
	decisionReject  = "reject"
)

type payRequest struct {
	Method       string  `json:"method" validate:"required,oneof=cash bank_transfer card check"`
	Reference    *string `json:"reference,omitempty" validate:"omitempty,max=255"`
	AmountCents  *int64  `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	Verification string  `json:"verification,omitempty" validate:"omitempty,oneof=instant deferred"`
}

type resolveRequest struct {
	Decision  string  `json:"decision" validate:"required,oneof=approve reject"`
	Reference *string `json:"reference,omitempty" validate:"omitempty,max=255"`
	Reason    string  `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

// Pay records a payment for the order in the path. Deferred verification leaves it pending.
func Pay(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
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

		var req payRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalpayments.PayInput{
			ActorID:     actorID,
			OrderID:     orderID,
			Method:      enums.PaymentMethod(req.Method),
			Reference:   req.Reference,
			AmountCents: req.AmountCents,
		}

		ctx := logg.WithOrderID(r.Context(), orderID)
		var result *internalpayments.PaymentResult
		switch strings.TrimSpace(req.Verification) {
		case verificationDeferred:
			result, err = svc.Submit(ctx, input)
		case "", verificationInstant:
			result, err = svc.Pay(ctx, input)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unsupported verification").
				WithDetails(map[string]string{"verification": "must be one of [instant deferred]"})
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Resolve approves or rejects a pending payment.
func Resolve(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		actorID, err := middleware.RequireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParsePathID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result *internalpayments.PaymentResult
		switch req.Decision {
		case decisionApprove:
			result, err = svc.Approve(r.Context(), internalpayments.ApproveInput{
				ActorID:   actorID,
				PaymentID: paymentID,
				Reference: req.Reference,
			})
		case decisionReject:
			result, err = svc.Reject(r.Context(), internalpayments.RejectInput{
				ActorID:   actorID,
				PaymentID: paymentID,
				Reason:    req.Reason,
			})
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unsupported decision").
				WithDetails(map[string]string{"decision": "must be one of [approve reject]"})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Detail returns a single payment record.
func Detail(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		paymentID, err := validators.ParsePathID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Get(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payment)
	}
}
