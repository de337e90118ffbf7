package models

import "time"

// InventoryItem is the shop-owned stock of a part. Quantity only grows through deliveries.
type InventoryItem struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	PartID        int64     `gorm:"column:part_id;not null;uniqueIndex"`
	Quantity      int       `gorm:"column:quantity;not null;default:0"`
	UnitCostCents int64     `gorm:"column:unit_cost_cents;not null"`
	Part          *Part     `gorm:"foreignKey:PartID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
