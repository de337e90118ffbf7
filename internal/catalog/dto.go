package catalog

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
)

// ItemDTO is the API shape of a supplier catalog entry.
type ItemDTO struct {
	ID             int64                   `json:"id"`
	SupplierID     int64                   `json:"supplier_id"`
	PartID         int64                   `json:"part_id"`
	PartSKU        string                  `json:"part_sku,omitempty"`
	PartName       string                  `json:"part_name,omitempty"`
	UnitPriceCents int64                   `json:"unit_price_cents"`
	AvailableQty   int                     `json:"available_qty"`
	LeadTimeDays   int                     `json:"lead_time_days"`
	Status         enums.CatalogItemStatus `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// ItemList is a cursor page of catalog items.
type ItemList struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func ItemFromModel(m models.CatalogItem) ItemDTO {
	dto := ItemDTO{
		ID:             m.ID,
		SupplierID:     m.SupplierID,
		PartID:         m.PartID,
		UnitPriceCents: m.UnitPriceCents,
		AvailableQty:   m.AvailableQty,
		LeadTimeDays:   m.LeadTimeDays,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Part != nil {
		dto.PartSKU = m.Part.SKU
		dto.PartName = m.Part.Name
	}
	return dto
}
