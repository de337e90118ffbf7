package purchaseorders

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	"github.com/garagehub/procurement-backend/pkg/types"
)

// OrderDTO is the full view of a purchase order: header, lines and payment.
type OrderDTO struct {
	ID                    int64            `json:"id"`
	OrderNumber           string           `json:"order_number"`
	SupplierID            int64            `json:"supplier_id"`
	Supplier              *SupplierSummary `json:"supplier,omitempty"`
	State                 enums.OrderState `json:"state"`
	TotalCents            int64            `json:"total_cents"`
	Total                 string           `json:"total"`
	Frozen                bool             `json:"frozen"`
	RequestedDeliveryDate *time.Time       `json:"requested_delivery_date,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
	CreatedBy             int64            `json:"created_by"`
	ShippedAt             *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt           *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt           *time.Time       `json:"cancelled_at,omitempty"`
	Lines                 []LineDTO        `json:"lines"`
	Payment               *PaymentSummary  `json:"payment,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

type SupplierSummary struct {
	ID     int64                `json:"id"`
	TaxID  string               `json:"tax_id"`
	Name   string               `json:"name"`
	Status enums.SupplierStatus `json:"status"`
}

type LineDTO struct {
	ID             int64  `json:"id"`
	OrderID        int64  `json:"order_id"`
	CatalogItemID  int64  `json:"catalog_item_id"`
	PartID         int64  `json:"part_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	Subtotal       string `json:"subtotal"`
}

// PaymentSummary is the payment shown on an order; the active record wins over rejected ones.
type PaymentSummary struct {
	ID          int64               `json:"id"`
	Status      enums.PaymentStatus `json:"status"`
	Method      enums.PaymentMethod `json:"method"`
	AmountCents int64               `json:"amount_cents"`
	Reference   *string             `json:"reference,omitempty"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

// OrderSummary is the list view of an order.
type OrderSummary struct {
	ID          int64            `json:"id"`
	OrderNumber string           `json:"order_number"`
	State       enums.OrderState `json:"state"`
	TotalCents  int64            `json:"total_cents"`
	Total       string           `json:"total"`
	Supplier    *SupplierSummary `json:"supplier,omitempty"`
	LineCount   int              `json:"line_count"`
	TotalQty    int              `json:"total_qty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// LineResult reports a line mutation together with the order total and catalog availability it produced.
type LineResult struct {
	OrderID      int64    `json:"order_id"`
	Line         *LineDTO `json:"line,omitempty"`
	TotalCents   int64    `json:"total_cents"`
	Total        string   `json:"total"`
	AvailableQty int      `json:"available_qty"`
}

func OrderFromModel(m models.PurchaseOrder) OrderDTO {
	dto := OrderDTO{
		ID:                    m.ID,
		OrderNumber:           m.OrderNumber,
		SupplierID:            m.SupplierID,
		Supplier:              supplierSummary(m.Supplier),
		State:                 m.State,
		TotalCents:            m.TotalCents,
		Total:                 types.FormatCents(m.TotalCents),
		RequestedDeliveryDate: m.RequestedDeliveryDate,
		Notes:                 m.Notes,
		CreatedBy:             m.CreatedBy,
		ShippedAt:             m.ShippedAt,
		DeliveredAt:           m.DeliveredAt,
		CancelledAt:           m.CancelledAt,
		Lines:                 make([]LineDTO, 0, len(m.Lines)),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	for _, line := range m.Lines {
		dto.Lines = append(dto.Lines, LineFromModel(line))
	}
	dto.Payment = currentPayment(m.Payments)
	dto.Frozen = m.State != enums.OrderStatePending ||
		(dto.Payment != nil && dto.Payment.Status.IsActive())
	return dto
}

func LineFromModel(m models.OrderLine) LineDTO {
	return LineDTO{
		ID:             m.ID,
		OrderID:        m.OrderID,
		CatalogItemID:  m.CatalogItemID,
		PartID:         m.PartID,
		Qty:            m.Qty,
		UnitPriceCents: m.UnitPriceCents,
		SubtotalCents:  m.SubtotalCents,
		Subtotal:       types.FormatCents(m.SubtotalCents),
	}
}

func SummaryFromModel(m models.PurchaseOrder) OrderSummary {
	summary := OrderSummary{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		State:       m.State,
		TotalCents:  m.TotalCents,
		Total:       types.FormatCents(m.TotalCents),
		Supplier:    supplierSummary(m.Supplier),
		LineCount:   len(m.Lines),
		CreatedAt:   m.CreatedAt,
	}
	for _, line := range m.Lines {
		summary.TotalQty += line.Qty
	}
	return summary
}

func supplierSummary(m *models.Supplier) *SupplierSummary {
	if m == nil {
		return nil
	}
	return &SupplierSummary{ID: m.ID, TaxID: m.TaxID, Name: m.Name, Status: m.Status}
}

func currentPayment(records []models.PaymentRecord) *PaymentSummary {
	var picked *models.PaymentRecord
	for i := range records {
		record := &records[i]
		if record.Status.IsActive() {
			picked = record
			break
		}
		picked = record
	}
	if picked == nil {
		return nil
	}
	return &PaymentSummary{
		ID:          picked.ID,
		Status:      picked.Status,
		Method:      picked.Method,
		AmountCents: picked.AmountCents,
		Reference:   picked.Reference,
		ResolvedAt:  picked.ResolvedAt,
	}
}
