package models

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/enums"
)

// Supplier is a vendor the shop buys parts from. Suppliers are deactivated, never deleted.
type Supplier struct {
	ID            int64                `gorm:"column:id;primaryKey;autoIncrement"`
	TaxID         string               `gorm:"column:tax_id;not null;uniqueIndex"`
	Name          string               `gorm:"column:name;not null"`
	ContactEmail  *string              `gorm:"column:contact_email"`
	Status        enums.SupplierStatus `gorm:"column:status;type:text;not null;default:'active'"`
	DeactivatedAt *time.Time           `gorm:"column:deactivated_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
