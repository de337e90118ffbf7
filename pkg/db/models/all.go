package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&Part{},
		&Supplier{},
		&CatalogItem{},
		&PurchaseOrder{},
		&OrderLine{},
		&PaymentRecord{},
		&InventoryItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
