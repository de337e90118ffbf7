package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/catalog"
	dbpkg "github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/pagination"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains the supplier registry and each supplier's catalog.
type Service interface {
	CreateSupplier(ctx context.Context, input CreateSupplierInput) (*SupplierDTO, error)
	DeactivateSupplier(ctx context.Context, input DeactivateSupplierInput) (*SupplierDTO, error)
	GetSupplier(ctx context.Context, id int64) (*SupplierDTO, error)
	ListSuppliers(ctx context.Context, params pagination.Params, filters ListFilters) (*SupplierList, error)
	PublishCatalogItem(ctx context.Context, input PublishCatalogItemInput) (*catalog.ItemDTO, error)
	RepriceCatalogItem(ctx context.Context, input RepriceCatalogItemInput) (*catalog.ItemDTO, error)
	ListCatalog(ctx context.Context, supplierID int64, params pagination.Params) (*catalog.ItemList, error)
}

type CreateSupplierInput struct {
	ActorID      int64
	TaxID        string
	Name         string
	ContactEmail *string
}

type DeactivateSupplierInput struct {
	ActorID    int64
	SupplierID int64
}

type PublishCatalogItemInput struct {
	ActorID        int64
	SupplierID     int64
	PartID         int64
	UnitPriceCents int64
	AvailableQty   int
	LeadTimeDays   int
}

type RepriceCatalogItemInput struct {
	ActorID        int64
	CatalogItemID  int64
	UnitPriceCents int64
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	tx      txRunner
	now     func() time.Time
}

func NewService(repo Repository, catalogRepo catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    repo,
		catalog: catalogRepo,
		tx:      tx,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateSupplier(ctx context.Context, input CreateSupplierInput) (*SupplierDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	taxID := strings.ToUpper(strings.TrimSpace(input.TaxID))
	name := strings.TrimSpace(input.Name)
	if taxID == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax id and name are required")
	}

	supplier := &models.Supplier{
		TaxID:        taxID,
		Name:         name,
		ContactEmail: input.ContactEmail,
		Status:       enums.SupplierStatusActive,
	}
	created, err := s.repo.Create(ctx, supplier)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "supplier tax id already registered").
				WithDetails(map[string]any{"tax_id": taxID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	dto := FromModel(*created)
	return &dto, nil
}

// DeactivateSupplier is idempotent: an inactive supplier is returned unchanged.
func (s *service) DeactivateSupplier(ctx context.Context, input DeactivateSupplierInput) (*SupplierDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	var result SupplierDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		supplier, err := loadSupplier(ctx, repo, input.SupplierID)
		if err != nil {
			return err
		}
		if supplier.Status == enums.SupplierStatusInactive {
			result = FromModel(*supplier)
			return nil
		}
		now := s.now()
		if err := repo.Deactivate(ctx, supplier.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate supplier")
		}
		supplier.Status = enums.SupplierStatusInactive
		supplier.DeactivatedAt = &now
		result = FromModel(*supplier)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetSupplier(ctx context.Context, id int64) (*SupplierDTO, error) {
	supplier, err := loadSupplier(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*supplier)
	return &dto, nil
}

func (s *service) ListSuppliers(ctx context.Context, params pagination.Params, filters ListFilters) (*SupplierList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier status filter")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, listError(err, "list suppliers")
	}
	return list, nil
}

func (s *service) PublishCatalogItem(ctx context.Context, input PublishCatalogItemInput) (*catalog.ItemDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := checkUnitPrice(input.UnitPriceCents); err != nil {
		return nil, err
	}
	if input.AvailableQty < 0 || input.LeadTimeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available qty and lead time cannot be negative")
	}
	if input.AvailableQty > types.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available qty exceeds the supported maximum").
			WithDetails(map[string]any{"max_qty": types.MaxQuantity})
	}

	var result catalog.ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		supplier, err := loadSupplier(ctx, repo, input.SupplierID)
		if err != nil {
			return err
		}
		if supplier.Status != enums.SupplierStatusActive {
			return ErrSupplierInactive
		}
		part, err := repo.FindPart(ctx, input.PartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "part does not exist").
					WithDetails(map[string]any{"part_id": input.PartID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load part")
		}

		item := &models.CatalogItem{
			SupplierID:     supplier.ID,
			PartID:         part.ID,
			UnitPriceCents: input.UnitPriceCents,
			AvailableQty:   input.AvailableQty,
			LeadTimeDays:   input.LeadTimeDays,
			Status:         enums.CatalogItemStatusActive,
		}
		created, err := s.catalog.WithTx(tx).Create(ctx, item)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "part already listed for supplier")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create catalog item")
		}
		created.Part = part
		result = catalog.ItemFromModel(*created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RepriceCatalogItem changes the list price; lines already ordered keep their snapshot.
func (s *service) RepriceCatalogItem(ctx context.Context, input RepriceCatalogItemInput) (*catalog.ItemDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if err := checkUnitPrice(input.UnitPriceCents); err != nil {
		return nil, err
	}

	var result catalog.ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.catalog.WithTx(tx)
		item, err := repo.FindByIDForUpdate(ctx, input.CatalogItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrCatalogItemNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
		}
		if err := repo.UpdatePrice(ctx, item.ID, input.UnitPriceCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update catalog price")
		}
		updated, err := repo.FindByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload catalog item")
		}
		result = catalog.ItemFromModel(*updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ListCatalog(ctx context.Context, supplierID int64, params pagination.Params) (*catalog.ItemList, error) {
	if _, err := loadSupplier(ctx, s.repo, supplierID); err != nil {
		return nil, err
	}
	list, err := s.catalog.ListBySupplier(ctx, supplierID, params)
	if err != nil {
		return nil, listError(err, "list catalog")
	}
	return list, nil
}

func loadSupplier(ctx context.Context, repo Repository, id int64) (*models.Supplier, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	supplier, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

// listError surfaces malformed cursors as validation failures.
func listError(err error, action string) error {
	if errors.Is(err, pagination.ErrInvalidCursor) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func checkUnitPrice(cents int64) error {
	if cents <= 0 || cents > types.MaxUnitPriceCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price out of range").
			WithDetails(map[string]any{"min_cents": 1, "max_cents": types.MaxUnitPriceCents})
	}
	return nil
}
