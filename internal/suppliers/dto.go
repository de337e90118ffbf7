package suppliers

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
)

type SupplierDTO struct {
	ID            int64                `json:"id"`
	TaxID         string               `json:"tax_id"`
	Name          string               `json:"name"`
	ContactEmail  *string              `json:"contact_email,omitempty"`
	Status        enums.SupplierStatus `json:"status"`
	DeactivatedAt *time.Time           `json:"deactivated_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type SupplierList struct {
	Suppliers  []SupplierDTO `json:"suppliers"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func FromModel(m models.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:            m.ID,
		TaxID:         m.TaxID,
		Name:          m.Name,
		ContactEmail:  m.ContactEmail,
		Status:        m.Status,
		DeactivatedAt: m.DeactivatedAt,
		CreatedAt:     m.CreatedAt,
	}
}
