package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/inventory"
	"github.com/garagehub/procurement-backend/pkg/db/dbtest"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
)

type stubOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newProcessor(t *testing.T, conn *gorm.DB, pub *stubOutbox) *Processor {
	t.Helper()
	p, err := NewProcessor(inventory.NewRepository(conn), pub, decimal.RequireFromString("0.10"))
	require.NoError(t, err)
	return p
}

func TestReceiveCreatesWithMarkupAndReplenishesWithout(t *testing.T) {
	conn := dbtest.Open(t)
	fresh := dbtest.SeedPart(t, conn, "NEW")
	known := dbtest.SeedPart(t, conn, "OLD")
	require.NoError(t, conn.Create(&models.InventoryItem{PartID: known.ID, Quantity: 5, UnitCostCents: 700}).Error)

	pub := &stubOutbox{}
	p := newProcessor(t, conn, pub)
	order := &models.PurchaseOrder{ID: 9}
	lines := []models.OrderLine{
		{ID: 1, OrderID: 9, PartID: fresh.ID, Qty: 4, UnitPriceCents: 1000},
		{ID: 2, OrderID: 9, PartID: known.ID, Qty: 3, UnitPriceCents: 2000},
	}

	var receipt *Receipt
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		receipt, err = p.Receive(context.Background(), tx, order, lines)
		return err
	})
	require.NoError(t, err)
	require.Len(t, receipt.Items, 2)

	assert.True(t, receipt.Items[0].Created)
	assert.Equal(t, 4, receipt.Items[0].Quantity)
	assert.Equal(t, int64(1100), receipt.Items[0].UnitCostCents)

	assert.False(t, receipt.Items[1].Created)
	assert.Equal(t, 8, receipt.Items[1].Quantity)
	assert.Equal(t, int64(700), receipt.Items[1].UnitCostCents)

	var stored models.InventoryItem
	require.NoError(t, conn.First(&stored, "part_id = ?", known.ID).Error)
	assert.Equal(t, 8, stored.Quantity)
	assert.Equal(t, int64(700), stored.UnitCostCents)

	require.Len(t, pub.events, 1)
	assert.Equal(t, enums.EventInventoryReplenished, pub.events[0].EventType)
	assert.Equal(t, int64(9), pub.events[0].AggregateID)
}

func TestReceiveRejectsInvalidLinesBeforeWriting(t *testing.T) {
	conn := dbtest.Open(t)
	part := dbtest.SeedPart(t, conn, "P")
	pub := &stubOutbox{}
	p := newProcessor(t, conn, pub)

	_, err := p.Receive(context.Background(), conn, &models.PurchaseOrder{ID: 1}, []models.OrderLine{
		{ID: 1, OrderID: 1, PartID: part.ID, Qty: 0},
		{ID: 2, OrderID: 2, PartID: part.ID, Qty: 1},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Len(t, details["problems"], 2)

	var count int64
	require.NoError(t, conn.Model(&models.InventoryItem{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, pub.events)
}

func TestReceiveFailureRollsBackEveryLine(t *testing.T) {
	conn := dbtest.Open(t)
	part := dbtest.SeedPart(t, conn, "ROLL")
	pub := &stubOutbox{err: errors.New("outbox down")}
	p := newProcessor(t, conn, pub)

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, err := p.Receive(context.Background(), tx, &models.PurchaseOrder{ID: 3}, []models.OrderLine{
			{ID: 1, OrderID: 3, PartID: part.ID, Qty: 2, UnitPriceCents: 500},
		})
		return err
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, conn.Model(&models.InventoryItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

// staleLookupRepo misses on the locked lookup, as when a concurrent delivery
// inserts the part after this transaction read it.
type staleLookupRepo struct {
	inventory.Repository
}

func (r staleLookupRepo) WithTx(tx *gorm.DB) inventory.Repository {
	return staleLookupRepo{Repository: r.Repository.WithTx(tx)}
}

func (r staleLookupRepo) FindByPartForUpdate(context.Context, int64) (*models.InventoryItem, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestReceiveConcurrentFirstStockIsConflict(t *testing.T) {
	conn := dbtest.Open(t)
	part := dbtest.SeedPart(t, conn, "RACE")
	require.NoError(t, conn.Create(&models.InventoryItem{PartID: part.ID, Quantity: 1, UnitCostCents: 900}).Error)

	pub := &stubOutbox{}
	p, err := NewProcessor(staleLookupRepo{Repository: inventory.NewRepository(conn)}, pub, decimal.Zero)
	require.NoError(t, err)

	err = conn.Transaction(func(tx *gorm.DB) error {
		_, err := p.Receive(context.Background(), tx, &models.PurchaseOrder{ID: 4}, []models.OrderLine{
			{ID: 1, OrderID: 4, PartID: part.ID, Qty: 2, UnitPriceCents: 500},
		})
		return err
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Empty(t, pub.events)

	var item models.InventoryItem
	require.NoError(t, conn.Where("part_id = ?", part.ID).First(&item).Error)
	assert.Equal(t, 1, item.Quantity)
}

func TestNewProcessorValidatesDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := NewProcessor(nil, &stubOutbox{}, decimal.Zero)
	assert.Error(t, err)
	_, err = NewProcessor(inventory.NewRepository(conn), nil, decimal.Zero)
	assert.Error(t, err)
	_, err = NewProcessor(inventory.NewRepository(conn), &stubOutbox{}, decimal.NewFromInt(-1))
	assert.Error(t, err)
}
