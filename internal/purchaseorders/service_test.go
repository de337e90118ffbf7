package purchaseorders

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/catalog"
	"github.com/garagehub/procurement-backend/internal/delivery"
	"github.com/garagehub/procurement-backend/internal/inventory"
	"github.com/garagehub/procurement-backend/internal/suppliers"
	"github.com/garagehub/procurement-backend/pkg/db/dbtest"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

const actor int64 = 7

type countingRecorder struct {
	transitions map[string]int
	lines       map[string]int
	rejections  map[string]int
	payments    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		transitions: map[string]int{},
		lines:       map[string]int{},
		rejections:  map[string]int{},
		payments:    map[string]int{},
	}
}

func (r *countingRecorder) IncTransition(from, to string) { r.transitions[from+">"+to]++ }
func (r *countingRecorder) IncLineChange(change string)   { r.lines[change]++ }
func (r *countingRecorder) IncRejection(reason string)    { r.rejections[reason]++ }
func (r *countingRecorder) IncPayment(status string)      { r.payments[status]++ }

type fixture struct {
	svc      Service
	machine  *StateMachine
	conn     *gorm.DB
	supplier models.Supplier
	part     models.Part
	item     models.CatalogItem
	metrics  *countingRecorder
	listings suppliers.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	supplier := dbtest.SeedSupplier(t, conn, "SUP-100")
	part := dbtest.SeedPart(t, conn, "BRK-PAD")
	item := dbtest.SeedCatalogItem(t, conn, supplier.ID, part.ID, 1250, 50)

	repo := NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	stock, err := catalog.NewStock(catalogRepo)
	require.NoError(t, err)
	publisher := outbox.NewService(outbox.NewRepository(conn), nil)
	processor, err := delivery.NewProcessor(inventory.NewRepository(conn), publisher, decimal.RequireFromString("0.10"))
	require.NoError(t, err)
	recorder := newCountingRecorder()
	machine, err := NewStateMachine(repo, publisher, recorder)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Catalog:      catalogRepo,
		Stock:        stock,
		StateMachine: machine,
		Delivery:     processor,
		Outbox:       publisher,
		Tx:           client,
		Metrics:      recorder,
	})
	require.NoError(t, err)
	listings, err := suppliers.NewService(suppliers.NewRepository(conn), catalogRepo, client)
	require.NoError(t, err)
	return &fixture{svc: svc, machine: machine, conn: conn, supplier: supplier, part: part, item: item, metrics: recorder, listings: listings}
}

func (f *fixture) createOrder(t *testing.T) *OrderDTO {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{ActorID: actor, SupplierID: f.supplier.ID})
	require.NoError(t, err)
	return order
}

func (f *fixture) available(t *testing.T, itemID int64) int {
	t.Helper()
	var item models.CatalogItem
	require.NoError(t, f.conn.First(&item, "id = ?", itemID).Error)
	return item.AvailableQty
}

func (f *fixture) order(t *testing.T, id int64) models.PurchaseOrder {
	t.Helper()
	var order models.PurchaseOrder
	require.NoError(t, f.conn.First(&order, "id = ?", id).Error)
	return order
}

func (f *fixture) setState(t *testing.T, id int64, state enums.OrderState) {
	t.Helper()
	require.NoError(t, f.conn.Model(&models.PurchaseOrder{}).Where("id = ?", id).Update("state", state).Error)
}

func (f *fixture) outboxCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

// assertTotalInvariant checks every line subtotal and the order total against the stored lines.
func (f *fixture) assertTotalInvariant(t *testing.T, orderID int64) {
	t.Helper()
	var lines []models.OrderLine
	require.NoError(t, f.conn.Where("order_id = ?", orderID).Find(&lines).Error)
	var sum int64
	for _, line := range lines {
		assert.Equal(t, int64(line.Qty)*line.UnitPriceCents, line.SubtotalCents, "line %d subtotal", line.ID)
		sum += line.SubtotalCents
	}
	assert.Equal(t, sum, f.order(t, orderID).TotalCents)
}

func (f *fixture) addPayment(t *testing.T, orderID int64, status enums.PaymentStatus) models.PaymentRecord {
	t.Helper()
	payment := models.PaymentRecord{
		OrderID:     orderID,
		AmountCents: f.order(t, orderID).TotalCents,
		Method:      enums.PaymentMethodBankTransfer,
		Status:      status,
		RecordedBy:  actor,
	}
	require.NoError(t, f.conn.Create(&payment).Error)
	return payment
}

func TestCreateOrderStartsPending(t *testing.T) {
	f := newFixture(t)
	notes := "  urgent brake job  "

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{ActorID: actor, SupplierID: f.supplier.ID, Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatePending, order.State)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "PO-"))
	assert.Len(t, order.OrderNumber, 11)
	assert.Zero(t, order.TotalCents)
	assert.Equal(t, "0.00", order.Total)
	require.NotNil(t, order.Notes)
	assert.Equal(t, "urgent brake job", *order.Notes)
	require.NotNil(t, order.Supplier)
	assert.Equal(t, f.supplier.ID, order.Supplier.ID)
	assert.Equal(t, int64(1), f.outboxCount(t, enums.EventPurchaseOrderCreated))
}

func TestCreateOrderGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, CreateOrderInput{SupplierID: f.supplier.ID})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{ActorID: actor, SupplierID: 9999})
	assert.True(t, errors.Is(err, suppliers.ErrSupplierNotFound))

	inactive := dbtest.SeedSupplier(t, f.conn, "SUP-OFF")
	require.NoError(t, f.conn.Model(&models.Supplier{}).Where("id = ?", inactive.ID).Update("status", enums.SupplierStatusInactive).Error)
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{ActorID: actor, SupplierID: inactive.ID})
	assert.True(t, errors.Is(err, suppliers.ErrSupplierInactive))

	past := time.Now().UTC().AddDate(0, 0, -3)
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{ActorID: actor, SupplierID: f.supplier.ID, RequestedDeliveryDate: &past})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, f.conn.Model(&models.PurchaseOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddThenShrinkLineMovesStockAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 10})
	require.NoError(t, err)
	assert.Equal(t, 40, added.AvailableQty)
	assert.Equal(t, int64(10*1250), added.TotalCents)
	assert.Equal(t, "125.00", added.Total)
	assert.Equal(t, 40, f.available(t, f.item.ID))
	f.assertTotalInvariant(t, order.ID)

	updated, err := f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 5})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.AvailableQty)
	assert.Equal(t, int64(5*1250), updated.TotalCents)
	assert.Equal(t, 45, f.available(t, f.item.ID))
	f.assertTotalInvariant(t, order.ID)

	assert.Equal(t, 1, f.metrics.lines["added"])
	assert.Equal(t, 1, f.metrics.lines["quantity_changed"])
	assert.Equal(t, int64(2), f.outboxCount(t, enums.EventOrderLineChanged))
}

func TestDuplicateLineIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 10})
	require.NoError(t, err)

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateLine))
	assert.Equal(t, 40, f.available(t, f.item.ID))
	assert.Equal(t, int64(10*1250), f.order(t, order.ID).TotalCents)
	assert.Equal(t, enums.OrderStatePending, f.order(t, order.ID).State)
	assert.Equal(t, 1, f.metrics.rejections[string(ReasonDuplicateLine)])
}

func TestUpdateBeyondAvailabilityChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 10})
	require.NoError(t, err)

	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 51})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInsufficientStock))

	var line models.OrderLine
	require.NoError(t, f.conn.First(&line, "id = ?", added.Line.ID).Error)
	assert.Equal(t, 10, line.Qty)
	assert.Equal(t, 40, f.available(t, f.item.ID))
	f.assertTotalInvariant(t, order.ID)

	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 50})
	require.NoError(t, err, "growing by exactly the remaining stock is allowed")
	assert.Equal(t, 0, f.available(t, f.item.ID))
}

func TestUpdateWithSameQtyIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 4})
	require.NoError(t, err)
	eventsBefore := f.outboxCount(t, enums.EventOrderLineChanged)

	result, err := f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 4})
	require.NoError(t, err)
	assert.Equal(t, 46, result.AvailableQty)
	assert.Equal(t, int64(4*1250), result.TotalCents)
	assert.Equal(t, 46, f.available(t, f.item.ID))
	assert.Equal(t, int64(4*1250), f.order(t, order.ID).TotalCents)
	assert.Equal(t, eventsBefore, f.outboxCount(t, enums.EventOrderLineChanged))
	assert.Zero(t, f.metrics.lines["quantity_changed"])
}

func TestRemoveLineReleasesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 12})
	require.NoError(t, err)

	removed, err := f.svc.RemoveLine(ctx, RemoveLineInput{ActorID: actor, LineID: added.Line.ID})
	require.NoError(t, err)
	assert.Nil(t, removed.Line)
	assert.Zero(t, removed.TotalCents)
	assert.Equal(t, 50, f.available(t, f.item.ID))
	f.assertTotalInvariant(t, order.ID)

	_, err = f.svc.RemoveLine(ctx, RemoveLineInput{ActorID: actor, LineID: added.Line.ID})
	assert.True(t, errors.Is(err, ErrLineNotFound))
}

func TestAddLineRejectsUnusableItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: 9999, Qty: 1})
	assert.True(t, errors.Is(err, catalog.ErrCatalogItemNotFound))

	other := dbtest.SeedSupplier(t, f.conn, "SUP-200")
	foreign := dbtest.SeedCatalogItem(t, f.conn, other.ID, f.part.ID, 900, 10)
	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: foreign.ID, Qty: 1})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, 10, f.available(t, foreign.ID))

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 0})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: 9999, CatalogItemID: f.item.ID, Qty: 1})
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 51})
	assert.True(t, errors.Is(err, catalog.ErrInsufficientStock))
	assert.Equal(t, 50, f.available(t, f.item.ID))

	var lines int64
	require.NoError(t, f.conn.Model(&models.OrderLine{}).Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestActivePaymentFreezesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 3})
	require.NoError(t, err)
	extraPart := dbtest.SeedPart(t, f.conn, "OIL")
	extra := dbtest.SeedCatalogItem(t, f.conn, f.supplier.ID, extraPart.ID, 500, 5)

	payment := f.addPayment(t, order.ID, enums.PaymentStatusPending)

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: extra.ID, Qty: 1})
	assert.True(t, errors.Is(err, ErrOrderFrozen))
	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 1})
	assert.True(t, errors.Is(err, ErrOrderFrozen))
	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 3})
	assert.True(t, errors.Is(err, ErrOrderFrozen), "even a no-op edit is refused on a frozen order")
	_, err = f.svc.RemoveLine(ctx, RemoveLineInput{ActorID: actor, LineID: added.Line.ID})
	assert.True(t, errors.Is(err, ErrOrderFrozen))

	assert.Equal(t, 47, f.available(t, f.item.ID))
	assert.Equal(t, 5, f.available(t, extra.ID))
	assert.Equal(t, int64(3*1250), f.order(t, order.ID).TotalCents)

	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.Frozen)
	require.NotNil(t, got.Payment)
	assert.Equal(t, payment.ID, got.Payment.ID)

	require.NoError(t, f.conn.Model(&models.PaymentRecord{}).Where("id = ?", payment.ID).Update("status", enums.PaymentStatusRejected).Error)
	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: extra.ID, Qty: 1})
	require.NoError(t, err, "a rejected payment unfreezes the order")
}

func TestLineEditsRefusedOutsidePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 2})
	require.NoError(t, err)

	for _, state := range []enums.OrderState{enums.OrderStateConfirmed, enums.OrderStateInTransit, enums.OrderStateDelivered, enums.OrderStateCancelled} {
		f.setState(t, order.ID, state)
		_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 1})
		assert.True(t, errors.Is(err, ErrOrderFrozen), "state %s", state)
	}
	assert.Equal(t, 48, f.available(t, f.item.ID))
}

func TestStateGraphAllowsOnlyListedTransitions(t *testing.T) {
	allowed := map[enums.OrderState]map[enums.OrderEvent]enums.OrderState{
		enums.OrderStatePending:   {enums.OrderEventPay: enums.OrderStateConfirmed, enums.OrderEventCancel: enums.OrderStateCancelled},
		enums.OrderStateConfirmed: {enums.OrderEventShip: enums.OrderStateInTransit},
		enums.OrderStateInTransit: {enums.OrderEventDeliver: enums.OrderStateDelivered},
	}
	events := []enums.OrderEvent{enums.OrderEventPay, enums.OrderEventShip, enums.OrderEventDeliver, enums.OrderEventCancel}

	for _, state := range enums.OrderStates() {
		for _, event := range events {
			f := newFixture(t)
			order := f.createOrder(t)
			f.setState(t, order.ID, state)

			err := f.conn.Transaction(func(tx *gorm.DB) error {
				locked, err := LoadForUpdate(context.Background(), f.machine.repo.WithTx(tx), order.ID)
				if err != nil {
					return err
				}
				_, err = f.machine.Apply(context.Background(), tx, locked, event, actor)
				return err
			})

			want, ok := allowed[state][event]
			if ok {
				require.NoError(t, err, "%s --%s-->", state, event)
				assert.Equal(t, want, f.order(t, order.ID).State)
				continue
			}
			require.Error(t, err, "%s --%s--> should fail", state, event)
			assert.True(t, errors.Is(err, ErrInvalidStateTransition))
			assert.Equal(t, state, f.order(t, order.ID).State, "state must be unchanged")
		}
	}
}

func TestShipAndDeliverMergeInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	stockedPart := dbtest.SeedPart(t, f.conn, "FILTER")
	stockedItem := dbtest.SeedCatalogItem(t, f.conn, f.supplier.ID, stockedPart.ID, 2000, 20)
	require.NoError(t, f.conn.Create(&models.InventoryItem{PartID: stockedPart.ID, Quantity: 6, UnitCostCents: 1800}).Error)

	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 10})
	require.NoError(t, err)
	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: stockedItem.ID, Qty: 4})
	require.NoError(t, err)
	f.setState(t, order.ID, enums.OrderStateConfirmed)

	shipped, err := f.svc.Ship(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStateInTransit, shipped.State)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := f.svc.Deliver(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStateDelivered, delivered.Order.State)
	require.NotNil(t, delivered.Order.DeliveredAt)
	require.Len(t, delivered.Receipt.Items, 2)

	var fresh models.InventoryItem
	require.NoError(t, f.conn.First(&fresh, "part_id = ?", f.part.ID).Error)
	assert.Equal(t, 10, fresh.Quantity)
	assert.Equal(t, int64(1375), fresh.UnitCostCents, "first stocking applies the markup")

	var stocked models.InventoryItem
	require.NoError(t, f.conn.First(&stocked, "part_id = ?", stockedPart.ID).Error)
	assert.Equal(t, 10, stocked.Quantity)
	assert.Equal(t, int64(1800), stocked.UnitCostCents, "replenishing keeps the recorded cost")

	assert.Equal(t, 1, f.metrics.transitions["confirmed>in_transit"])
	assert.Equal(t, 1, f.metrics.transitions["in_transit>delivered"])
	assert.Equal(t, int64(2), f.outboxCount(t, enums.EventPurchaseOrderStateChanged))
	assert.Equal(t, int64(1), f.outboxCount(t, enums.EventInventoryReplenished))
}

func TestDeliverBeforeShippingIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 1})
	require.NoError(t, err)
	f.setState(t, order.ID, enums.OrderStateConfirmed)

	_, err = f.svc.Deliver(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.Equal(t, enums.OrderStateConfirmed, f.order(t, order.ID).State)

	var count int64
	require.NoError(t, f.conn.Model(&models.InventoryItem{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 1, f.metrics.rejections[string(ReasonInvalidStateTransition)])

	_, err = f.svc.Ship(ctx, TransitionInput{ActorID: actor, OrderID: 9999})
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestCancelReleasesReservedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 15})
	require.NoError(t, err)
	assert.Equal(t, 35, f.available(t, f.item.ID))

	cancelled, err := f.svc.Cancel(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStateCancelled, cancelled.State)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 50, f.available(t, f.item.ID))

	_, err = f.svc.Cancel(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.Equal(t, 50, f.available(t, f.item.ID))
}

func TestCancelRefusedWithActivePayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 2})
	require.NoError(t, err)
	f.addPayment(t, order.ID, enums.PaymentStatusPending)

	_, err = f.svc.Cancel(ctx, TransitionInput{ActorID: actor, OrderID: order.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.Equal(t, enums.OrderStatePending, f.order(t, order.ID).State)
	assert.Equal(t, 48, f.available(t, f.item.ID))
}

func TestListOrdersFiltersAndSummaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createOrder(t)
	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: first.ID, CatalogItemID: f.item.ID, Qty: 3})
	require.NoError(t, err)
	f.createOrder(t)

	other := dbtest.SeedSupplier(t, f.conn, "SUP-300")
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{ActorID: actor, SupplierID: other.ID})
	require.NoError(t, err)
	f.setState(t, first.ID, enums.OrderStateConfirmed)

	all, err := f.svc.ListOrders(ctx, pagination.Params{}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)

	supplierID := f.supplier.ID
	bySupplier, err := f.svc.ListOrders(ctx, pagination.Params{}, ListFilters{SupplierID: &supplierID})
	require.NoError(t, err)
	assert.Len(t, bySupplier.Orders, 2)

	confirmed := enums.OrderStateConfirmed
	both, err := f.svc.ListOrders(ctx, pagination.Params{}, ListFilters{SupplierID: &supplierID, State: &confirmed})
	require.NoError(t, err)
	require.Len(t, both.Orders, 1)
	assert.Equal(t, first.ID, both.Orders[0].ID)
	assert.Equal(t, 1, both.Orders[0].LineCount)
	assert.Equal(t, 3, both.Orders[0].TotalQty)
	require.NotNil(t, both.Orders[0].Supplier)
	assert.Equal(t, "SUP-100", both.Orders[0].Supplier.TaxID)

	paged, err := f.svc.ListOrders(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	assert.Len(t, paged.Orders, 2)
	assert.NotEmpty(t, paged.NextCursor)

	bogus := enums.OrderState("lost")
	_, err = f.svc.ListOrders(ctx, pagination.Params{}, ListFilters{State: &bogus})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestFilterPredicatesKeepEveryCondition(t *testing.T) {
	state := enums.OrderStatePending
	supplierID := int64(4)
	preds := ListFilters{State: &state, SupplierID: &supplierID}.predicates()
	require.Len(t, preds, 2)
	assert.Equal(t, "state = ?", preds[0].clause)
	assert.Equal(t, "supplier_id = ?", preds[1].clause)
	assert.Empty(t, ListFilters{}.predicates())
}

func TestAddLineRejectsAmountsBeyondInt64(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	pricey := dbtest.SeedCatalogItem(t, f.conn, f.supplier.ID, dbtest.SeedPart(t, f.conn, "ENG-BLOCK").ID, math.MaxInt64/2, 10)

	_, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: pricey.ID, Qty: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmountOutOfRange))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, 10, f.available(t, pricey.ID))
	assert.Equal(t, int64(0), f.order(t, order.ID).TotalCents)

	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: pricey.ID, Qty: 1})
	require.NoError(t, err)

	// the order total would wrap even though this line alone fits
	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 1})
	require.NoError(t, err)
	other := dbtest.SeedCatalogItem(t, f.conn, f.supplier.ID, dbtest.SeedPart(t, f.conn, "ENG-HEAD").ID, math.MaxInt64/2, 10)
	_, err = f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: other.ID, Qty: 1})
	assert.True(t, errors.Is(err, ErrAmountOutOfRange))
	assert.Equal(t, 10, f.available(t, other.ID))
	f.assertTotalInvariant(t, order.ID)
}

func TestUpdateLineRejectsAmountsBeyondInt64(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	pricey := dbtest.SeedCatalogItem(t, f.conn, f.supplier.ID, dbtest.SeedPart(t, f.conn, "ENG-BLOCK").ID, math.MaxInt64/2, 10)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: pricey.ID, Qty: 1})
	require.NoError(t, err)

	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmountOutOfRange))
	assert.Equal(t, 9, f.available(t, pricey.ID))
	f.assertTotalInvariant(t, order.ID)

	_, err = f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: math.MaxInt32 + 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRepriceKeepsOrderedLinePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)
	added, err := f.svc.AddLine(ctx, AddLineInput{ActorID: actor, OrderID: order.ID, CatalogItemID: f.item.ID, Qty: 2})
	require.NoError(t, err)

	repriced, err := f.listings.RepriceCatalogItem(ctx, suppliers.RepriceCatalogItemInput{ActorID: actor, CatalogItemID: f.item.ID, UnitPriceCents: 9999})
	require.NoError(t, err)
	assert.Equal(t, int64(9999), repriced.UnitPriceCents)

	detail, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, added.Line.ID, detail.Lines[0].ID)
	assert.Equal(t, int64(1250), detail.Lines[0].UnitPriceCents)
	assert.Equal(t, int64(2*1250), detail.TotalCents)

	updated, err := f.svc.UpdateLineQuantity(ctx, UpdateLineQuantityInput{ActorID: actor, LineID: added.Line.ID, Qty: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3*1250), updated.TotalCents, "quantity changes keep the snapshot price")
	f.assertTotalInvariant(t, order.ID)
}
