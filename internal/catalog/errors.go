package catalog

import pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"

const (
	ReasonInsufficientStock   pkgerrors.Reason = "INSUFFICIENT_STOCK"
	ReasonCatalogItemNotFound pkgerrors.Reason = "CATALOG_ITEM_NOT_FOUND"
)

var (
	ErrInsufficientStock   = pkgerrors.Define(pkgerrors.CodeBusinessRule, ReasonInsufficientStock, "insufficient supplier stock")
	ErrCatalogItemNotFound = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonCatalogItemNotFound, "catalog item not found")
)
