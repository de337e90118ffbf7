package suppliers

import pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"

const (
	ReasonSupplierNotFound pkgerrors.Reason = "SUPPLIER_NOT_FOUND"
	ReasonSupplierInactive pkgerrors.Reason = "SUPPLIER_INACTIVE"
)

var (
	ErrSupplierNotFound = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonSupplierNotFound, "supplier not found")
	ErrSupplierInactive = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonSupplierInactive, "supplier is inactive")
)
