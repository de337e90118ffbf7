package models

import "time"

// OrderLine snapshots the unit price of a catalog item at the time it was ordered.
type OrderLine struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID        int64     `gorm:"column:order_id;not null;uniqueIndex:idx_order_lines_order_item"`
	CatalogItemID  int64     `gorm:"column:catalog_item_id;not null;uniqueIndex:idx_order_lines_order_item"`
	PartID         int64     `gorm:"column:part_id;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	SubtotalCents  int64     `gorm:"column:subtotal_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
