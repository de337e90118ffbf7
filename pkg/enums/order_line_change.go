package enums

// OrderLineChange describes what happened to an order line.
type OrderLineChange string

const (
	OrderLineAdded           OrderLineChange = "added"
	OrderLineQuantityChanged OrderLineChange = "quantity_changed"
	OrderLineRemoved         OrderLineChange = "removed"
)
