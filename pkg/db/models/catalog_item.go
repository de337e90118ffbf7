package models

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/enums"
)

// CatalogItem is a supplier's offer for a part and the stock still available to reserve.
type CatalogItem struct {
	ID             int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID     int64                   `gorm:"column:supplier_id;not null;uniqueIndex:idx_catalog_items_supplier_part"`
	PartID         int64                   `gorm:"column:part_id;not null;uniqueIndex:idx_catalog_items_supplier_part"`
	UnitPriceCents int64                   `gorm:"column:unit_price_cents;not null"`
	AvailableQty   int                     `gorm:"column:available_qty;not null;default:0"`
	LeadTimeDays   int                     `gorm:"column:lead_time_days;not null;default:0"`
	Status         enums.CatalogItemStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Part           *Part                   `gorm:"foreignKey:PartID"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
