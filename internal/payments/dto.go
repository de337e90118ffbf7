package payments

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type PaymentDTO struct {
	ID              int64               `json:"id"`
	OrderID         int64               `json:"order_id"`
	AmountCents     int64               `json:"amount_cents"`
	Amount          string              `json:"amount"`
	Method          enums.PaymentMethod `json:"method"`
	Reference       *string             `json:"reference,omitempty"`
	Status          enums.PaymentStatus `json:"status"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	RecordedBy      int64               `json:"recorded_by"`
	ResolvedBy      *int64              `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time          `json:"resolved_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// PaymentResult reports the payment with the order state it left behind.
type PaymentResult struct {
	Payment    PaymentDTO       `json:"payment"`
	OrderState enums.OrderState `json:"order_state"`
}

func FromModel(m models.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:              m.ID,
		OrderID:         m.OrderID,
		AmountCents:     m.AmountCents,
		Amount:          types.FormatCents(m.AmountCents),
		Method:          m.Method,
		Reference:       m.Reference,
		Status:          m.Status,
		RejectionReason: m.RejectionReason,
		RecordedBy:      m.RecordedBy,
		ResolvedBy:      m.ResolvedBy,
		ResolvedAt:      m.ResolvedAt,
		CreatedAt:       m.CreatedAt,
	}
}
