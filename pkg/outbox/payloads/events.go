package payloads

import (
	"time"

	"github.com/garagehub/procurement-backend/pkg/enums"
)

// PurchaseOrderCreatedEvent is emitted when a purchase order is opened against a supplier.
type PurchaseOrderCreatedEvent struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	SupplierID  int64  `json:"supplier_id"`
	CreatedBy   int64  `json:"created_by"`
}

// OrderLineChangedEvent records a line mutation together with the stock it moved.
type OrderLineChangedEvent struct {
	OrderID       int64                 `json:"order_id"`
	LineID        int64                 `json:"line_id"`
	CatalogItemID int64                 `json:"catalog_item_id"`
	Change        enums.OrderLineChange `json:"change"`
	PreviousQty   int                   `json:"previous_qty"`
	Qty           int                   `json:"qty"`
	AvailableQty  int                   `json:"available_qty"`
	TotalCents    int64                 `json:"total_cents"`
}

// PaymentRecordedEvent is emitted when a payment is recorded, instant or pending verification.
type PaymentRecordedEvent struct {
	PaymentID   int64               `json:"payment_id"`
	OrderID     int64               `json:"order_id"`
	AmountCents int64               `json:"amount_cents"`
	Method      enums.PaymentMethod `json:"method"`
	Status      enums.PaymentStatus `json:"status"`
}

// PaymentResolvedEvent is emitted when a pending payment is approved or rejected.
type PaymentResolvedEvent struct {
	PaymentID int64               `json:"payment_id"`
	OrderID   int64               `json:"order_id"`
	Status    enums.PaymentStatus `json:"status"`
	Reason    *string             `json:"reason,omitempty"`
}

// PurchaseOrderStateChangedEvent captures every state machine transition.
type PurchaseOrderStateChangedEvent struct {
	OrderID    int64            `json:"order_id"`
	SupplierID int64            `json:"supplier_id"`
	From       enums.OrderState `json:"from"`
	To         enums.OrderState `json:"to"`
	TotalCents int64            `json:"total_cents"`
	ChangedAt  time.Time        `json:"changed_at"`
}

// InventoryReplenishedEvent lists the inventory rows a delivery touched.
type InventoryReplenishedEvent struct {
	OrderID int64                 `json:"order_id"`
	Items   []InventoryMovedEntry `json:"items"`
}

type InventoryMovedEntry struct {
	PartID        int64 `json:"part_id"`
	QtyReceived   int   `json:"qty_received"`
	Quantity      int   `json:"quantity"`
	UnitCostCents int64 `json:"unit_cost_cents"`
	Created       bool  `json:"created"`
}
