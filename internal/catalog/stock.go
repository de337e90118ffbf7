package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
)

// Stock is the availability ledger for supplier catalog items. Every call
// runs inside the caller's transaction so a failed line write undoes the
// stock movement with it.
type Stock struct {
	repo Repository
}

func NewStock(repo Repository) (*Stock, error) {
	if repo == nil {
		return nil, errors.New("catalog repository required")
	}
	return &Stock{repo: repo}, nil
}

// Reserve takes delta units from the item and returns the remaining availability.
func (s *Stock) Reserve(ctx context.Context, tx *gorm.DB, itemID int64, delta int) (int, error) {
	if delta <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "reservation delta must be positive")
	}
	repo := s.repo.WithTx(tx)

	item, err := repo.FindByIDForUpdate(ctx, itemID)
	if err != nil {
		return 0, mapLookupError(err)
	}
	if delta > item.AvailableQty {
		return 0, ErrInsufficientStock.WithDetails(map[string]any{
			"catalog_item_id": itemID,
			"requested":       delta,
			"available":       item.AvailableQty,
		})
	}

	applied, err := repo.DecrementAvailable(ctx, itemID, delta)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve catalog stock")
	}
	if !applied {
		return 0, ErrInsufficientStock.WithDetails(map[string]any{
			"catalog_item_id": itemID,
			"requested":       delta,
		})
	}
	return item.AvailableQty - delta, nil
}

// Release returns delta units to the item and reports the new availability.
func (s *Stock) Release(ctx context.Context, tx *gorm.DB, itemID int64, delta int) (int, error) {
	if delta <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "release delta must be positive")
	}
	repo := s.repo.WithTx(tx)

	item, err := repo.FindByIDForUpdate(ctx, itemID)
	if err != nil {
		return 0, mapLookupError(err)
	}
	if err := repo.IncrementAvailable(ctx, itemID, delta); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release catalog stock")
	}
	return item.AvailableQty + delta, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCatalogItemNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
}
