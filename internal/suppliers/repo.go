package suppliers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

// Repository persists suppliers and resolves the parts they sell.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	FindByID(ctx context.Context, id int64) (*models.Supplier, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*SupplierList, error)
	Deactivate(ctx context.Context, id int64, at time.Time) error
	FindPart(ctx context.Context, id int64) (*models.Part, error)
}

// ListFilters narrows supplier listings.
type ListFilters struct {
	Status *enums.SupplierStatus
	Query  string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*SupplierList, error) {
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&models.Supplier{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("(name LIKE ? OR tax_id LIKE ?)", like, like)
	}

	var rows []models.Supplier
	if err := query.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &SupplierList{}
	rows, list.NextCursor = pagination.Trim(rows, params.Limit, func(m models.Supplier) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	list.Suppliers = make([]SupplierDTO, 0, len(rows))
	for _, row := range rows {
		list.Suppliers = append(list.Suppliers, FromModel(row))
	}
	return list, nil
}

func (r *repository) Deactivate(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":         enums.SupplierStatusInactive,
			"deactivated_at": at,
			"updated_at":     at,
		}).Error
}

func (r *repository) FindPart(ctx context.Context, id int64) (*models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).First(&part, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &part, nil
}
