package purchaseorders

import pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"

const (
	ReasonOrderNotFound          pkgerrors.Reason = "ORDER_NOT_FOUND"
	ReasonOrderFrozen            pkgerrors.Reason = "ORDER_FROZEN"
	ReasonDuplicateLine          pkgerrors.Reason = "DUPLICATE_LINE"
	ReasonInvalidStateTransition pkgerrors.Reason = "INVALID_STATE_TRANSITION"
	ReasonLineNotFound           pkgerrors.Reason = "LINE_NOT_FOUND"
	ReasonAmountOutOfRange       pkgerrors.Reason = "AMOUNT_OUT_OF_RANGE"
)

var (
	ErrOrderNotFound          = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonOrderNotFound, "purchase order not found")
	ErrOrderFrozen            = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonOrderFrozen, "purchase order lines can no longer change")
	ErrDuplicateLine          = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonDuplicateLine, "catalog item already on order; change the existing line quantity")
	ErrInvalidStateTransition = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonInvalidStateTransition, "purchase order cannot move to the requested state")
	ErrLineNotFound           = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonLineNotFound, "order line not found")
	ErrAmountOutOfRange       = pkgerrors.Define(pkgerrors.CodeValidation, ReasonAmountOutOfRange, "line or order amount exceeds the supported range")
)
