package purchaseorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/catalog"
	"github.com/garagehub/procurement-backend/internal/delivery"
	"github.com/garagehub/procurement-backend/internal/suppliers"
	dbpkg "github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
	"github.com/garagehub/procurement-backend/pkg/outbox/payloads"
	"github.com/garagehub/procurement-backend/pkg/pagination"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockLedger reserves and releases supplier catalog stock inside the caller's transaction.
type StockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, itemID int64, delta int) (int, error)
	Release(ctx context.Context, tx *gorm.DB, itemID int64, delta int) (int, error)
}

// DeliveryReceiver merges delivered lines into shop inventory.
type DeliveryReceiver interface {
	Receive(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder, lines []models.OrderLine) (*delivery.Receipt, error)
}

// Service drives purchase orders from creation to delivery.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	AddLine(ctx context.Context, input AddLineInput) (*LineResult, error)
	UpdateLineQuantity(ctx context.Context, input UpdateLineQuantityInput) (*LineResult, error)
	RemoveLine(ctx context.Context, input RemoveLineInput) (*LineResult, error)
	GetOrder(ctx context.Context, id int64) (*OrderDTO, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	Ship(ctx context.Context, input TransitionInput) (*OrderDTO, error)
	Deliver(ctx context.Context, input TransitionInput) (*DeliveryResult, error)
	Cancel(ctx context.Context, input TransitionInput) (*OrderDTO, error)
}

type CreateOrderInput struct {
	ActorID               int64
	SupplierID            int64
	RequestedDeliveryDate *time.Time
	Notes                 *string
}

type AddLineInput struct {
	ActorID       int64
	OrderID       int64
	CatalogItemID int64
	Qty           int
}

type UpdateLineQuantityInput struct {
	ActorID int64
	LineID  int64
	Qty     int
}

type RemoveLineInput struct {
	ActorID int64
	LineID  int64
}

type TransitionInput struct {
	ActorID int64
	OrderID int64
}

// DeliveryResult pairs the delivered order with the inventory receipt.
type DeliveryResult struct {
	Order   OrderDTO          `json:"order"`
	Receipt *delivery.Receipt `json:"receipt"`
}

// ServiceParams bundles the dependencies required to build the purchase order service.
type ServiceParams struct {
	Repo         Repository
	Catalog      catalog.Repository
	Stock        StockLedger
	StateMachine *StateMachine
	Delivery     DeliveryReceiver
	Outbox       outboxPublisher
	Tx           txRunner
	Metrics      Recorder
}

type service struct {
	repo      Repository
	catalog   catalog.Repository
	stock     StockLedger
	machine   *StateMachine
	delivery  DeliveryReceiver
	outbox    outboxPublisher
	tx        txRunner
	metrics   Recorder
	now       func() time.Time
	newNumber func() string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.StateMachine == nil {
		return nil, fmt.Errorf("state machine required")
	}
	if params.Delivery == nil {
		return nil, fmt.Errorf("delivery receiver required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	metrics := params.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &service{
		repo:      params.Repo,
		catalog:   params.Catalog,
		stock:     params.Stock,
		machine:   params.StateMachine,
		delivery:  params.Delivery,
		outbox:    params.Outbox,
		tx:        params.Tx,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
		newNumber: newOrderNumber,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.SupplierID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	now := s.now()
	if input.RequestedDeliveryDate != nil && input.RequestedDeliveryDate.Before(now.Truncate(24*time.Hour)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested delivery date is in the past")
	}
	notes := normalizeNotes(input.Notes)

	var result OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		supplier, err := repo.FindSupplier(ctx, input.SupplierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return suppliers.ErrSupplierNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
		if supplier.Status != enums.SupplierStatusActive {
			return suppliers.ErrSupplierInactive.WithDetails(map[string]any{"supplier_id": supplier.ID})
		}

		order := &models.PurchaseOrder{
			SupplierID:            supplier.ID,
			OrderNumber:           s.newNumber(),
			State:                 enums.OrderStatePending,
			RequestedDeliveryDate: input.RequestedDeliveryDate,
			Notes:                 notes,
			CreatedBy:             input.ActorID,
		}
		created, err := repo.CreateOrder(ctx, order)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order number collision, retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   created.ID,
			Actor:         outbox.Actor(input.ActorID),
			Data: payloads.PurchaseOrderCreatedEvent{
				OrderID:     created.ID,
				OrderNumber: created.OrderNumber,
				SupplierID:  created.SupplierID,
				CreatedBy:   created.CreatedBy,
			},
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		created.Supplier = supplier
		result = OrderFromModel(*created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) AddLine(ctx context.Context, input AddLineInput) (*LineResult, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID <= 0 || input.CatalogItemID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and catalog item id required")
	}
	if input.Qty <= 0 || input.Qty > types.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive").
			WithDetails(map[string]any{"max_qty": types.MaxQuantity})
	}

	var result LineResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := LoadForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := ensureMutable(ctx, repo, order); err != nil {
			return err
		}

		if _, err := repo.FindLineByItem(ctx, order.ID, input.CatalogItemID); err == nil {
			return ErrDuplicateLine.WithDetails(map[string]any{
				"order_id":        order.ID,
				"catalog_item_id": input.CatalogItemID,
			})
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing line")
		}

		item, err := s.catalog.WithTx(tx).FindByID(ctx, input.CatalogItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrCatalogItemNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
		}
		if item.SupplierID != order.SupplierID {
			return pkgerrors.New(pkgerrors.CodeValidation, "catalog item belongs to a different supplier").
				WithDetails(map[string]any{"catalog_item_id": item.ID, "supplier_id": item.SupplierID})
		}
		if item.Status != enums.CatalogItemStatusActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "catalog item is not active").
				WithDetails(map[string]any{"catalog_item_id": item.ID})
		}

		subtotal, err := types.LineSubtotal(input.Qty, item.UnitPriceCents)
		if err != nil {
			return amountOutOfRange(order.ID, input.Qty, item.UnitPriceCents)
		}
		if _, err := types.AddCents(order.TotalCents, subtotal); err != nil {
			return amountOutOfRange(order.ID, input.Qty, item.UnitPriceCents)
		}

		available, err := s.stock.Reserve(ctx, tx, item.ID, input.Qty)
		if err != nil {
			return err
		}

		line, err := repo.CreateLine(ctx, &models.OrderLine{
			OrderID:        order.ID,
			CatalogItemID:  item.ID,
			PartID:         item.PartID,
			Qty:            input.Qty,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  subtotal,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return ErrDuplicateLine
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order line")
		}

		total, err := repo.RecomputeTotal(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute order total")
		}
		if err := s.emitLineChange(ctx, tx, input.ActorID, *line, enums.OrderLineAdded, 0, available, total); err != nil {
			return err
		}

		dto := LineFromModel(*line)
		result = lineResult(order.ID, &dto, total, available)
		return nil
	})
	if err != nil {
		ObserveFailure(s.metrics, err)
		return nil, err
	}
	s.metrics.IncLineChange(string(enums.OrderLineAdded))
	return &result, nil
}

// UpdateLineQuantity moves stock by the difference between the new and current qty.
// An unchanged qty writes nothing.
func (s *service) UpdateLineQuantity(ctx context.Context, input UpdateLineQuantityInput) (*LineResult, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.LineID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive; remove the line instead")
	}
	if input.Qty > types.MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty exceeds the supported maximum").
			WithDetails(map[string]any{"max_qty": types.MaxQuantity})
	}

	changed := false
	var result LineResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, line, err := s.lockLine(ctx, repo, input.LineID)
		if err != nil {
			return err
		}
		if err := ensureMutable(ctx, repo, order); err != nil {
			return err
		}

		delta := input.Qty - line.Qty
		if delta == 0 {
			item, err := s.catalog.WithTx(tx).FindByID(ctx, line.CatalogItemID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog item")
			}
			dto := LineFromModel(*line)
			result = lineResult(order.ID, &dto, order.TotalCents, item.AvailableQty)
			return nil
		}

		subtotal, err := types.LineSubtotal(input.Qty, line.UnitPriceCents)
		if err != nil {
			return amountOutOfRange(order.ID, input.Qty, line.UnitPriceCents)
		}
		if _, err := types.AddCents(order.TotalCents-line.SubtotalCents, subtotal); err != nil {
			return amountOutOfRange(order.ID, input.Qty, line.UnitPriceCents)
		}

		var available int
		if delta > 0 {
			available, err = s.stock.Reserve(ctx, tx, line.CatalogItemID, delta)
		} else {
			available, err = s.stock.Release(ctx, tx, line.CatalogItemID, -delta)
		}
		if err != nil {
			return err
		}

		previous := line.Qty
		line.Qty = input.Qty
		line.SubtotalCents = subtotal
		if err := repo.UpdateLineQty(ctx, line.ID, line.Qty, line.SubtotalCents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order line")
		}
		total, err := repo.RecomputeTotal(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute order total")
		}
		if err := s.emitLineChange(ctx, tx, input.ActorID, *line, enums.OrderLineQuantityChanged, previous, available, total); err != nil {
			return err
		}

		changed = true
		dto := LineFromModel(*line)
		result = lineResult(order.ID, &dto, total, available)
		return nil
	})
	if err != nil {
		ObserveFailure(s.metrics, err)
		return nil, err
	}
	if changed {
		s.metrics.IncLineChange(string(enums.OrderLineQuantityChanged))
	}
	return &result, nil
}

func (s *service) RemoveLine(ctx context.Context, input RemoveLineInput) (*LineResult, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.LineID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line id required")
	}

	var result LineResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, line, err := s.lockLine(ctx, repo, input.LineID)
		if err != nil {
			return err
		}
		if err := ensureMutable(ctx, repo, order); err != nil {
			return err
		}

		available, err := s.stock.Release(ctx, tx, line.CatalogItemID, line.Qty)
		if err != nil {
			return err
		}
		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order line")
		}
		total, err := repo.RecomputeTotal(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute order total")
		}

		previous := line.Qty
		line.Qty = 0
		if err := s.emitLineChange(ctx, tx, input.ActorID, *line, enums.OrderLineRemoved, previous, available, total); err != nil {
			return err
		}
		result = lineResult(order.ID, nil, total, available)
		return nil
	})
	if err != nil {
		ObserveFailure(s.metrics, err)
		return nil, err
	}
	s.metrics.IncLineChange(string(enums.OrderLineRemoved))
	return &result, nil
}

func (s *service) GetOrder(ctx context.Context, id int64) (*OrderDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, orderLookupError(err)
	}
	dto := OrderFromModel(*order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.State != nil && !filters.State.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order state filter")
	}
	if filters.SupplierID != nil && *filters.SupplierID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier filter")
	}
	list, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidCursor) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	return list, nil
}

func (s *service) Ship(ctx context.Context, input TransitionInput) (*OrderDTO, error) {
	return s.transition(ctx, input, enums.OrderEventShip, nil)
}

// Cancel releases every line's reserved stock back to the supplier catalog.
func (s *service) Cancel(ctx context.Context, input TransitionInput) (*OrderDTO, error) {
	return s.transition(ctx, input, enums.OrderEventCancel, func(tx *gorm.DB, repo Repository, order *models.PurchaseOrder) error {
		lines, err := repo.FindLinesByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
		}
		for _, line := range lines {
			if _, err := s.stock.Release(ctx, tx, line.CatalogItemID, line.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Deliver(ctx context.Context, input TransitionInput) (*DeliveryResult, error) {
	var receipt *delivery.Receipt
	order, err := s.transition(ctx, input, enums.OrderEventDeliver, func(tx *gorm.DB, repo Repository, order *models.PurchaseOrder) error {
		lines, err := repo.FindLinesByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order lines")
		}
		receipt, err = s.delivery.Receive(ctx, tx, order, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &DeliveryResult{Order: *order, Receipt: receipt}, nil
}

// transition locks the order, applies event and runs after inside the same transaction.
func (s *service) transition(
	ctx context.Context,
	input TransitionInput,
	event enums.OrderEvent,
	after func(tx *gorm.DB, repo Repository, order *models.PurchaseOrder) error,
) (*OrderDTO, error) {
	if input.ActorID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		result  OrderDTO
		applied Transition
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := LoadForUpdate(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if event == enums.OrderEventCancel {
			active, err := repo.HasActivePayment(ctx, order.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payments")
			}
			if active {
				return s.machine.Reject(order, event, "order has an active payment")
			}
		}

		applied, err = s.machine.Apply(ctx, tx, order, event, input.ActorID)
		if err != nil {
			return err
		}
		if after != nil {
			if err := after(tx, repo, order); err != nil {
				return err
			}
		}

		reloaded, err := repo.FindOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase order")
		}
		result = OrderFromModel(*reloaded)
		return nil
	})
	if err != nil {
		s.machine.ObserveFailure(err)
		return nil, err
	}
	s.machine.Observe(applied)
	return &result, nil
}

// lockLine resolves the line's order, locks it, then re-reads the line under that lock.
func (s *service) lockLine(ctx context.Context, repo Repository, lineID int64) (*models.PurchaseOrder, *models.OrderLine, error) {
	line, err := repo.FindLine(ctx, lineID)
	if err != nil {
		return nil, nil, lineLookupError(err)
	}
	order, err := LoadForUpdate(ctx, repo, line.OrderID)
	if err != nil {
		return nil, nil, err
	}
	line, err = repo.FindLine(ctx, lineID)
	if err != nil {
		return nil, nil, lineLookupError(err)
	}
	return order, line, nil
}

func (s *service) emitLineChange(
	ctx context.Context,
	tx *gorm.DB,
	actorID int64,
	line models.OrderLine,
	change enums.OrderLineChange,
	previousQty, available int,
	total int64,
) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderLineChanged,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   line.OrderID,
		Actor:         outbox.Actor(actorID),
		Data: payloads.OrderLineChangedEvent{
			OrderID:       line.OrderID,
			LineID:        line.ID,
			CatalogItemID: line.CatalogItemID,
			Change:        change,
			PreviousQty:   previousQty,
			Qty:           line.Qty,
			AvailableQty:  available,
			TotalCents:    total,
		},
		OccurredAt: s.now(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit line change")
	}
	return nil
}

// LoadForUpdate locks the order row for the rest of tx.
func LoadForUpdate(ctx context.Context, repo Repository, orderID int64) (*models.PurchaseOrder, error) {
	order, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}
	return order, nil
}

// ensureMutable rejects line changes once the order left PENDING or holds an active payment.
func ensureMutable(ctx context.Context, repo Repository, order *models.PurchaseOrder) error {
	if order.State != enums.OrderStatePending {
		return ErrOrderFrozen.WithDetails(map[string]any{"order_id": order.ID, "state": order.State})
	}
	active, err := repo.HasActivePayment(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payments")
	}
	if active {
		return ErrOrderFrozen.WithDetails(map[string]any{"order_id": order.ID, "payment": "active"})
	}
	return nil
}

func orderLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
}

func lineLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLineNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order line")
}

func lineResult(orderID int64, line *LineDTO, total int64, available int) LineResult {
	return LineResult{
		OrderID:      orderID,
		Line:         line,
		TotalCents:   total,
		Total:        types.FormatCents(total),
		AvailableQty: available,
	}
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PO-" + strings.ToUpper(raw[:8])
}

func amountOutOfRange(orderID int64, qty int, unitCents int64) error {
	return ErrAmountOutOfRange.WithDetails(map[string]any{
		"order_id":         orderID,
		"qty":              qty,
		"unit_price_cents": unitCents,
	})
}
