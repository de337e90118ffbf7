package models

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/enums"
)

// PurchaseOrder is the aggregate root for a supplier order. TotalCents is derived from Lines.
type PurchaseOrder struct {
	ID                    int64            `gorm:"column:id;primaryKey;autoIncrement"`
	SupplierID            int64            `gorm:"column:supplier_id;not null;index"`
	OrderNumber           string           `gorm:"column:order_number;not null;uniqueIndex"`
	State                 enums.OrderState `gorm:"column:state;type:text;not null;default:'pending'"`
	TotalCents            int64            `gorm:"column:total_cents;not null;default:0"`
	RequestedDeliveryDate *time.Time       `gorm:"column:requested_delivery_date"`
	Notes                 *string          `gorm:"column:notes"`
	CreatedBy             int64            `gorm:"column:created_by;not null"`
	ShippedAt             *time.Time       `gorm:"column:shipped_at"`
	DeliveredAt           *time.Time       `gorm:"column:delivered_at"`
	CancelledAt           *time.Time       `gorm:"column:cancelled_at"`
	Supplier              *Supplier        `gorm:"foreignKey:SupplierID"`
	Lines                 []OrderLine      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments              []PaymentRecord  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
