package payments

import pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"

const (
	ReasonAlreadyPaid            pkgerrors.Reason = "ALREADY_PAID"
	ReasonOrderNotPending        pkgerrors.Reason = "ORDER_NOT_PENDING"
	ReasonPaymentAlreadyResolved pkgerrors.Reason = "PAYMENT_ALREADY_RESOLVED"
	ReasonAmountMismatch         pkgerrors.Reason = "AMOUNT_MISMATCH"
	ReasonPaymentNotFound        pkgerrors.Reason = "PAYMENT_NOT_FOUND"
)

var (
	ErrAlreadyPaid            = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonAlreadyPaid, "order already has an active payment")
	ErrOrderNotPending        = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonOrderNotPending, "order is not pending")
	ErrPaymentAlreadyResolved = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonPaymentAlreadyResolved, "payment was already approved or rejected")
	ErrAmountMismatch         = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonAmountMismatch, "payment amount does not match the order total")
	ErrPaymentNotFound        = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonPaymentNotFound, "payment not found")
)
