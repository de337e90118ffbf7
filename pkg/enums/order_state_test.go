package enums

import "testing"

func TestOrderStateGraph(t *testing.T) {
	allowed := map[OrderState][]OrderState{
		OrderStatePending:   {OrderStateConfirmed, OrderStateCancelled},
		OrderStateConfirmed: {OrderStateInTransit},
		OrderStateInTransit: {OrderStateDelivered},
	}

	for _, from := range OrderStates() {
		for _, to := range OrderStates() {
			want := false
			for _, candidate := range allowed[from] {
				if candidate == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestOrderStateNext(t *testing.T) {
	if next, ok := OrderStatePending.Next(OrderEventPay); !ok || next != OrderStateConfirmed {
		t.Fatalf("pay from pending should confirm, got %s %v", next, ok)
	}
	if _, ok := OrderStateConfirmed.Next(OrderEventCancel); ok {
		t.Fatalf("confirmed orders cannot be cancelled")
	}
	if _, ok := OrderStateDelivered.Next(OrderEventShip); ok {
		t.Fatalf("delivered is terminal")
	}
	if !OrderStateDelivered.IsTerminal() || !OrderStateCancelled.IsTerminal() || OrderStatePending.IsTerminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestParseOrderState(t *testing.T) {
	state, err := ParseOrderState("in_transit")
	if err != nil || state != OrderStateInTransit {
		t.Fatalf("unexpected parse result %s %v", state, err)
	}
	if _, err := ParseOrderState("shipped"); err == nil {
		t.Fatalf("expected error for unknown state")
	}
}

func TestPaymentStatusActive(t *testing.T) {
	if !PaymentStatusPending.IsActive() || !PaymentStatusPaid.IsActive() {
		t.Fatalf("pending and paid must be active")
	}
	if PaymentStatusRejected.IsActive() {
		t.Fatalf("rejected must not be active")
	}
}
