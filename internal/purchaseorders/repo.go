package purchaseorders

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

// Repository persists purchase orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error)
	FindOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	FindOrderForUpdate(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	FindLine(ctx context.Context, id int64) (*models.OrderLine, error)
	FindLineByItem(ctx context.Context, orderID, catalogItemID int64) (*models.OrderLine, error)
	FindLinesByOrder(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	CreateLine(ctx context.Context, line *models.OrderLine) (*models.OrderLine, error)
	UpdateLineQty(ctx context.Context, id int64, qty int, subtotalCents int64) error
	DeleteLine(ctx context.Context, id int64) error
	RecomputeTotal(ctx context.Context, orderID int64) (int64, error)
	UpdateState(ctx context.Context, orderID int64, from, to enums.OrderState, stamps map[string]any) (bool, error)
	HasActivePayment(ctx context.Context, orderID int64) (bool, error)
}

// ListFilters narrows ListOrders. Nil fields are ignored.
type ListFilters struct {
	State      *enums.OrderState
	SupplierID *int64
}

type predicate struct {
	clause string
	args   []any
}

// predicates expands the filters in a fixed order; every set field contributes exactly one condition.
func (f ListFilters) predicates() []predicate {
	var out []predicate
	if f.State != nil {
		out = append(out, predicate{clause: "state = ?", args: []any{*f.State}})
	}
	if f.SupplierID != nil {
		out = append(out, predicate{clause: "supplier_id = ?", args: []any{*f.SupplierID}})
	}
	return out
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	page, err := pagination.Keyset(params)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines")
	for _, p := range filters.predicates() {
		query = query.Where(p.clause, p.args...)
	}

	var rows []models.PurchaseOrder
	if err := query.Scopes(page).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{}
	rows, list.NextCursor = pagination.Trim(rows, params.Limit, func(m models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	list.Orders = make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		list.Orders = append(list.Orders, SummaryFromModel(row))
	}
	return list, nil
}

func (r *repository) FindLine(ctx context.Context, id int64) (*models.OrderLine, error) {
	var line models.OrderLine
	if err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLineByItem(ctx context.Context, orderID, catalogItemID int64) (*models.OrderLine, error) {
	var line models.OrderLine
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND catalog_item_id = ?", orderID, catalogItemID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindLinesByOrder(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) CreateLine(ctx context.Context, line *models.OrderLine) (*models.OrderLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) UpdateLineQty(ctx context.Context, id int64, qty int, subtotalCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"qty":            qty,
			"subtotal_cents": subtotalCents,
			"updated_at":     time.Now().UTC(),
		}).Error
}

func (r *repository) DeleteLine(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.OrderLine{}, "id = ?", id).Error
}

// RecomputeTotal stores the sum of the order's line subtotals as its total and returns it.
func (r *repository) RecomputeTotal(ctx context.Context, orderID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderLine{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(subtotal_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	err = r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"total_cents": total,
			"updated_at":  time.Now().UTC(),
		}).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateState applies a transition only while the row is still in from; false means no row matched.
func (r *repository) UpdateState(ctx context.Context, orderID int64, from, to enums.OrderState, stamps map[string]any) (bool, error) {
	updates := map[string]any{
		"state":      to,
		"updated_at": time.Now().UTC(),
	}
	for column, value := range stamps {
		updates[column] = value
	}
	res := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND state = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) HasActivePayment(ctx context.Context, orderID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRecord{}).
		Where("order_id = ? AND status IN ?", orderID, enums.ActivePaymentStatuses()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
