package models

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/enums"
)

// PaymentRecord tracks a payment made against a purchase order.
type PaymentRecord struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64               `gorm:"column:order_id;not null;index"`
	AmountCents     int64               `gorm:"column:amount_cents;not null"`
	Method          enums.PaymentMethod `gorm:"column:method;type:text;not null"`
	Reference       *string             `gorm:"column:reference"`
	Status          enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	RecordedBy      int64               `gorm:"column:recorded_by;not null"`
	ResolvedBy      *int64              `gorm:"column:resolved_by"`
	ResolvedAt      *time.Time          `gorm:"column:resolved_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
