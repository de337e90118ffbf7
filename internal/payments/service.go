package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	dbpkg "github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
	"github.com/garagehub/procurement-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records supplier payments and the order confirmation they trigger.
type Service interface {
	Pay(ctx context.Context, input PayInput) (*PaymentResult, error)
	Submit(ctx context.Context, input PayInput) (*PaymentResult, error)
	Approve(ctx context.Context, input ApproveInput) (*PaymentResult, error)
	Reject(ctx context.Context, input RejectInput) (*PaymentResult, error)
	Get(ctx context.Context, id int64) (*PaymentDTO, error)
}

// PayInput records a payment for an order. AmountCents is optional; when set it must equal the order total.
type PayInput struct {
	ActorID     int64
	OrderID     int64
	Method      enums.PaymentMethod
	Reference   *string
	AmountCents *int64
}

type ApproveInput struct {
	ActorID   int64
	PaymentID int64
	Reference *string
}

type RejectInput struct {
	ActorID   int64
	PaymentID int64
	Reason    string
}

type ServiceParams struct {
	Repo         Repository
	Orders       purchaseorders.Repository
	StateMachine *purchaseorders.StateMachine
	Outbox       outboxPublisher
	Tx           txRunner
	Metrics      purchaseorders.Recorder
}

type service struct {
	repo    Repository
	orders  purchaseorders.Repository
	machine *purchaseorders.StateMachine
	outbox  outboxPublisher
	tx      txRunner
	metrics purchaseorders.Recorder
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.StateMachine == nil {
		return nil, fmt.Errorf("state machine required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:    params.Repo,
		orders:  params.Orders,
		machine: params.StateMachine,
		outbox:  params.Outbox,
		tx:      params.Tx,
		metrics: params.Metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Pay records a settled payment and confirms the order in one transaction.
func (s *service) Pay(ctx context.Context, input PayInput) (*PaymentResult, error) {
	return s.record(ctx, input, enums.PaymentStatusPaid)
}

// Submit records a payment awaiting verification. The order stays pending but frozen.
func (s *service) Submit(ctx context.Context, input PayInput) (*PaymentResult, error) {
	return s.record(ctx, input, enums.PaymentStatusPending)
}

func (s *service) record(ctx context.Context, input PayInput, status enums.PaymentStatus) (*PaymentResult, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.AmountCents != nil && *input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	reference := normalize(input.Reference)

	var (
		result     PaymentResult
		transition *purchaseorders.Transition
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := purchaseorders.LoadForUpdate(ctx, s.orders.WithTx(tx), input.OrderID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if active, err := repo.FindActiveByOrder(ctx, order.ID); err == nil {
			return ErrAlreadyPaid.WithDetails(map[string]any{"order_id": order.ID, "payment_id": active.ID, "status": active.Status})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payments")
		}
		if err := checkPayable(order, input.AmountCents); err != nil {
			return err
		}

		now := s.now()
		record := &models.PaymentRecord{
			OrderID:     order.ID,
			AmountCents: order.TotalCents,
			Method:      input.Method,
			Reference:   reference,
			Status:      status,
			RecordedBy:  input.ActorID,
		}
		if status == enums.PaymentStatusPaid {
			record.ResolvedBy = &input.ActorID
			record.ResolvedAt = &now
		}
		created, err := repo.Create(ctx, record)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_payment_records_active_order") {
				return ErrAlreadyPaid.WithDetails(map[string]any{"order_id": order.ID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment record")
		}

		if status == enums.PaymentStatusPaid {
			applied, err := s.machine.Apply(ctx, tx, order, enums.OrderEventPay, input.ActorID)
			if err != nil {
				return err
			}
			transition = &applied
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePaymentRecord,
			AggregateID:   created.ID,
			Actor:         outbox.Actor(input.ActorID),
			Data: payloads.PaymentRecordedEvent{
				PaymentID:   created.ID,
				OrderID:     order.ID,
				AmountCents: created.AmountCents,
				Method:      created.Method,
				Status:      created.Status,
			},
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment recorded")
		}

		result = PaymentResult{Payment: FromModel(*created), OrderState: order.State}
		return nil
	})
	if err != nil {
		s.machine.ObserveFailure(err)
		return nil, err
	}
	s.observe(status, transition)
	return &result, nil
}

// Approve settles a pending payment. The amount is checked against the order total again.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*PaymentResult, error) {
	var transition *purchaseorders.Transition
	result, err := s.resolve(ctx, input.ActorID, input.PaymentID, func(tx *gorm.DB, order *models.PurchaseOrder, record *models.PaymentRecord) (Resolution, error) {
		if order.State != enums.OrderStatePending {
			return Resolution{}, ErrOrderNotPending.WithDetails(map[string]any{"order_id": order.ID, "state": order.State})
		}
		if record.AmountCents != order.TotalCents {
			return Resolution{}, ErrAmountMismatch.WithDetails(map[string]any{
				"payment_cents": record.AmountCents,
				"total_cents":   order.TotalCents,
			})
		}
		applied, err := s.machine.Apply(ctx, tx, order, enums.OrderEventPay, input.ActorID)
		if err != nil {
			return Resolution{}, err
		}
		transition = &applied
		return Resolution{Status: enums.PaymentStatusPaid, Reference: normalize(input.Reference)}, nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(enums.PaymentStatusPaid, transition)
	return result, nil
}

// Reject voids a pending payment, which unfreezes the order for new lines or another payment.
func (s *service) Reject(ctx context.Context, input RejectInput) (*PaymentResult, error) {
	reason := normalize(&input.Reason)
	result, err := s.resolve(ctx, input.ActorID, input.PaymentID, func(tx *gorm.DB, order *models.PurchaseOrder, record *models.PaymentRecord) (Resolution, error) {
		return Resolution{Status: enums.PaymentStatusRejected, Reason: reason}, nil
	})
	if err != nil {
		return nil, err
	}
	s.observe(enums.PaymentStatusRejected, nil)
	return result, nil
}

type resolveFunc func(tx *gorm.DB, order *models.PurchaseOrder, record *models.PaymentRecord) (Resolution, error)

// resolve locks the payment's order before re-reading the payment, then applies decide.
func (s *service) resolve(ctx context.Context, actorID, paymentID int64, decide resolveFunc) (*PaymentResult, error) {
	if actorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if paymentID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var result PaymentResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := loadPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		order, err := purchaseorders.LoadForUpdate(ctx, s.orders.WithTx(tx), record.OrderID)
		if err != nil {
			return err
		}
		record, err = loadPayment(ctx, repo, paymentID)
		if err != nil {
			return err
		}
		if record.Status != enums.PaymentStatusPending {
			return ErrPaymentAlreadyResolved.WithDetails(map[string]any{"payment_id": record.ID, "status": record.Status})
		}

		resolution, err := decide(tx, order, record)
		if err != nil {
			return err
		}
		resolution.ResolvedBy = actorID
		resolution.ResolvedAt = s.now()

		applied, err := repo.Resolve(ctx, record.ID, resolution)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment")
		}
		if !applied {
			return ErrPaymentAlreadyResolved.WithDetails(map[string]any{"payment_id": record.ID})
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentResolved,
			AggregateType: enums.AggregatePaymentRecord,
			AggregateID:   record.ID,
			Actor:         outbox.Actor(actorID),
			Data: payloads.PaymentResolvedEvent{
				PaymentID: record.ID,
				OrderID:   order.ID,
				Status:    resolution.Status,
				Reason:    resolution.Reason,
			},
			OccurredAt: resolution.ResolvedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit payment resolved")
		}

		updated, err := loadPayment(ctx, repo, record.ID)
		if err != nil {
			return err
		}
		result = PaymentResult{Payment: FromModel(*updated), OrderState: order.State}
		return nil
	})
	if err != nil {
		s.machine.ObserveFailure(err)
		return nil, err
	}
	return &result, nil
}

func (s *service) Get(ctx context.Context, id int64) (*PaymentDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	record, err := loadPayment(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*record)
	return &dto, nil
}

func (s *service) observe(status enums.PaymentStatus, transition *purchaseorders.Transition) {
	if s.metrics != nil {
		s.metrics.IncPayment(status.String())
	}
	if transition != nil {
		s.machine.Observe(*transition)
	}
}

// checkPayable validates the locked order against the requested payment.
func checkPayable(order *models.PurchaseOrder, amountCents *int64) error {
	if order.State != enums.OrderStatePending {
		return ErrOrderNotPending.WithDetails(map[string]any{"order_id": order.ID, "state": order.State})
	}
	if order.TotalCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no lines to pay for")
	}
	if amountCents != nil && *amountCents != order.TotalCents {
		return ErrAmountMismatch.WithDetails(map[string]any{
			"amount_cents": *amountCents,
			"total_cents":  order.TotalCents,
		})
	}
	return nil
}

func loadPayment(ctx context.Context, repo Repository, id int64) (*models.PaymentRecord, error) {
	record, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return record, nil
}

func normalize(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
