package inventory

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

// Repository persists the shop's own parts stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByPart(ctx context.Context, partID int64) (*models.InventoryItem, error)
	FindByPartForUpdate(ctx context.Context, partID int64) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	IncrementQuantity(ctx context.Context, id int64, qty int, at time.Time) error
	List(ctx context.Context, params pagination.Params) (*ItemList, error)
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

func (r *repository) FindByPart(ctx context.Context, partID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Preload("Part").First(&item, "part_id = ?", partID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByPartForUpdate(ctx context.Context, partID int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "part_id = ?", partID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// IncrementQuantity adds qty to the row in place; the unit cost is left as recorded.
func (r *repository) IncrementQuantity(ctx context.Context, id int64, qty int, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE inventory_items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		qty, at, id,
	).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*ItemList, error) {
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Preload("Part")

	var rows []models.InventoryItem
	if err := query.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ItemList{}
	rows, list.NextCursor = pagination.Trim(rows, params.Limit, func(m models.InventoryItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	list.Items = make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		list.Items = append(list.Items, FromModel(row))
	}
	return list, nil
}
