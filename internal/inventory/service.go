package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

// Service exposes read-only views of the shop inventory. Quantities change only through deliveries.
type Service interface {
	Get(ctx context.Context, partID int64) (*ItemDTO, error)
	List(ctx context.Context, params pagination.Params) (*ItemList, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, partID int64) (*ItemDTO, error) {
	if partID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "part id required")
	}
	item, err := s.repo.FindByPart(ctx, partID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInventoryNotFound.WithDetails(map[string]any{"part_id": partID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	dto := FromModel(*item)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ItemList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}
	return list, nil
}
