package inventory

import pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"

const ReasonInventoryNotFound pkgerrors.Reason = "INVENTORY_NOT_FOUND"

var ErrInventoryNotFound = pkgerrors.Define(pkgerrors.CodeNotFound, ReasonInventoryNotFound, "no inventory recorded for part")
