package inventory

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type ItemDTO struct {
	ID            int64     `json:"id"`
	PartID        int64     `json:"part_id"`
	PartSKU       string    `json:"part_sku,omitempty"`
	PartName      string    `json:"part_name,omitempty"`
	Quantity      int       `json:"quantity"`
	UnitCostCents int64     `json:"unit_cost_cents"`
	UnitCost      string    `json:"unit_cost"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ItemList struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func FromModel(m models.InventoryItem) ItemDTO {
	dto := ItemDTO{
		ID:            m.ID,
		PartID:        m.PartID,
		Quantity:      m.Quantity,
		UnitCostCents: m.UnitCostCents,
		UnitCost:      types.FormatCents(m.UnitCostCents),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Part != nil {
		dto.PartSKU = m.Part.SKU
		dto.PartName = m.Part.Name
	}
	return dto
}
