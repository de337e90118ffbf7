package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

// Repository persists supplier catalog items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error)
	FindByID(ctx context.Context, id int64) (*models.CatalogItem, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.CatalogItem, error)
	ListBySupplier(ctx context.Context, supplierID int64, params pagination.Params) (*ItemList, error)
	UpdatePrice(ctx context.Context, id int64, priceCents int64) error
	DecrementAvailable(ctx context.Context, id int64, delta int) (bool, error)
	IncrementAvailable(ctx context.Context, id int64, delta int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.CatalogItem) (*models.CatalogItem, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := r.db.WithContext(ctx).Preload("Part").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID int64, params pagination.Params) (*ItemList, error) {
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Part").
		Where("supplier_id = ?", supplierID)

	var rows []models.CatalogItem
	if err := query.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ItemList{}
	rows, list.NextCursor = pagination.Trim(rows, params.Limit, func(m models.CatalogItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	list.Items = make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		list.Items = append(list.Items, ItemFromModel(row))
	}
	return list, nil
}

func (r *repository) UpdatePrice(ctx context.Context, id int64, priceCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"unit_price_cents": priceCents,
			"updated_at":       time.Now().UTC(),
		}).Error
}

// DecrementAvailable subtracts delta only while enough stock remains; false means nothing changed.
func (r *repository) DecrementAvailable(ctx context.Context, id int64, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE catalog_items
		 SET available_qty = available_qty - ?, updated_at = ?
		 WHERE id = ? AND available_qty >= ?`,
		delta, time.Now().UTC(), id, delta,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementAvailable(ctx context.Context, id int64, delta int) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE catalog_items
		 SET available_qty = available_qty + ?, updated_at = ?
		 WHERE id = ?`,
		delta, time.Now().UTC(), id,
	).Error
}
