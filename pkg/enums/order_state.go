package enums

import "fmt"

// OrderState tracks the lifecycle of a purchase order.
type OrderState string

const (
	OrderStatePending   OrderState = "pending"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateInTransit OrderState = "in_transit"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCancelled OrderState = "cancelled"
)

var validOrderStates = []OrderState{
	OrderStatePending,
	OrderStateConfirmed,
	OrderStateInTransit,
	OrderStateDelivered,
	OrderStateCancelled,
}

// OrderEvent names the operations that move a purchase order between states.
type OrderEvent string

const (
	OrderEventPay     OrderEvent = "pay"
	OrderEventShip    OrderEvent = "ship"
	OrderEventDeliver OrderEvent = "deliver"
	OrderEventCancel  OrderEvent = "cancel"
)

// orderTransitions is the single source of truth for the purchase order graph.
var orderTransitions = map[OrderState]map[OrderEvent]OrderState{
	OrderStatePending: {
		OrderEventPay:    OrderStateConfirmed,
		OrderEventCancel: OrderStateCancelled,
	},
	OrderStateConfirmed: {
		OrderEventShip: OrderStateInTransit,
	},
	OrderStateInTransit: {
		OrderEventDeliver: OrderStateDelivered,
	},
}

// String implements fmt.Stringer.
func (s OrderState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderState.
func (s OrderState) IsValid() bool {
	for _, candidate := range validOrderStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves the state.
func (s OrderState) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// Next returns the state reached by applying event, if the graph allows it.
func (s OrderState) Next(event OrderEvent) (OrderState, bool) {
	next, ok := orderTransitions[s][event]
	return next, ok
}

// CanTransitionTo reports whether any event moves s directly to target.
func (s OrderState) CanTransitionTo(target OrderState) bool {
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// OrderStates lists every known state in lifecycle order.
func OrderStates() []OrderState {
	out := make([]OrderState, len(validOrderStates))
	copy(out, validOrderStates)
	return out
}

// ParseOrderState converts raw input into an OrderState.
func ParseOrderState(value string) (OrderState, error) {
	for _, candidate := range validOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order state %q", value)
}
