package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
	"github.com/garagehub/procurement-backend/pkg/outbox/payloads"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Recorder receives procurement counters once a transaction has committed.
type Recorder interface {
	IncTransition(from, to string)
	IncLineChange(change string)
	IncRejection(reason string)
	IncPayment(status string)
}

type nopRecorder struct{}

func (nopRecorder) IncTransition(string, string) {}
func (nopRecorder) IncLineChange(string)         {}
func (nopRecorder) IncRejection(string)          {}
func (nopRecorder) IncPayment(string)            {}

// Transition is the outcome of a successful state change.
type Transition struct {
	OrderID int64
	From    enums.OrderState
	To      enums.OrderState
	At      time.Time
}

// StateMachine applies order events against the transition table in enums.
type StateMachine struct {
	repo    Repository
	outbox  outboxPublisher
	metrics Recorder
	now     func() time.Time
}

func NewStateMachine(repo Repository, outbox outboxPublisher, metrics Recorder) (*StateMachine, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &StateMachine{
		repo:    repo,
		outbox:  outbox,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Apply moves order along event inside tx. The caller must already hold the order row lock.
// On success the in-memory order reflects the new state and timestamps.
func (m *StateMachine) Apply(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder, event enums.OrderEvent, actorID int64) (Transition, error) {
	if order == nil {
		return Transition{}, errors.New("order required")
	}
	from := order.State
	to, ok := from.Next(event)
	if !ok {
		return Transition{}, invalidTransition(order.ID, from, event)
	}

	now := m.now()
	stamps := map[string]any{}
	switch to {
	case enums.OrderStateInTransit:
		stamps["shipped_at"] = now
	case enums.OrderStateDelivered:
		stamps["delivered_at"] = now
	case enums.OrderStateCancelled:
		stamps["cancelled_at"] = now
	}

	applied, err := m.repo.WithTx(tx).UpdateState(ctx, order.ID, from, to, stamps)
	if err != nil {
		return Transition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order state")
	}
	if !applied {
		return Transition{}, invalidTransition(order.ID, from, event)
	}

	order.State = to
	switch to {
	case enums.OrderStateInTransit:
		order.ShippedAt = &now
	case enums.OrderStateDelivered:
		order.DeliveredAt = &now
	case enums.OrderStateCancelled:
		order.CancelledAt = &now
	}

	if err := m.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseOrderStateChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   order.ID,
		Actor:         outbox.Actor(actorID),
		Data: payloads.PurchaseOrderStateChangedEvent{
			OrderID:    order.ID,
			SupplierID: order.SupplierID,
			From:       from,
			To:         to,
			TotalCents: order.TotalCents,
			ChangedAt:  now,
		},
		OccurredAt: now,
	}); err != nil {
		return Transition{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order state change")
	}
	return Transition{OrderID: order.ID, From: from, To: to, At: now}, nil
}

// Observe records a committed transition.
func (m *StateMachine) Observe(t Transition) {
	m.metrics.IncTransition(t.From.String(), t.To.String())
}

// Reject guards an event that is allowed by the graph but blocked by a business condition.
func (m *StateMachine) Reject(order *models.PurchaseOrder, event enums.OrderEvent, condition string) error {
	return ErrInvalidStateTransition.WithDetails(map[string]any{
		"order_id":  order.ID,
		"state":     order.State,
		"event":     event,
		"condition": condition,
	})
}

func (m *StateMachine) ObserveFailure(err error) {
	ObserveFailure(m.metrics, err)
}

// ObserveFailure counts business rule rejections by their stable reason.
func ObserveFailure(metrics Recorder, err error) {
	if err == nil || metrics == nil {
		return
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeBusinessRule {
		return
	}
	metrics.IncRejection(string(typed.Reason()))
}

func invalidTransition(orderID int64, from enums.OrderState, event enums.OrderEvent) error {
	return ErrInvalidStateTransition.WithDetails(map[string]any{
		"order_id": orderID,
		"state":    from,
		"event":    event,
	})
}
