package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/pkg/db/dbtest"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

func newStockFixture(t *testing.T, available int) (*Stock, *gorm.DB, models.CatalogItem) {
	t.Helper()
	conn := dbtest.Open(t)
	supplier := dbtest.SeedSupplier(t, conn, "RFC-001")
	part := dbtest.SeedPart(t, conn, "BRK-PAD")
	item := dbtest.SeedCatalogItem(t, conn, supplier.ID, part.ID, 1500, available)

	stock, err := NewStock(NewRepository(conn))
	require.NoError(t, err)
	return stock, conn, item
}

func availableQty(t *testing.T, conn *gorm.DB, id int64) int {
	t.Helper()
	var item models.CatalogItem
	require.NoError(t, conn.First(&item, "id = ?", id).Error)
	return item.AvailableQty
}

func TestReserveDecrementsAvailability(t *testing.T) {
	stock, conn, item := newStockFixture(t, 10)
	ctx := context.Background()

	var remaining int
	err := conn.Transaction(func(tx *gorm.DB) error {
		var err error
		remaining, err = stock.Reserve(ctx, tx, item.ID, 4)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 6, remaining)
	assert.Equal(t, 6, availableQty(t, conn, item.ID))
}

func TestReserveRejectsMoreThanAvailable(t *testing.T) {
	stock, conn, item := newStockFixture(t, 3)

	_, err := stock.Reserve(context.Background(), conn, item.ID, 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, 3, availableQty(t, conn, item.ID))
}

func TestReserveExactlyAvailableDrainsToZero(t *testing.T) {
	stock, conn, item := newStockFixture(t, 5)

	remaining, err := stock.Reserve(context.Background(), conn, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	_, err = stock.Reserve(context.Background(), conn, item.ID, 1)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, 0, availableQty(t, conn, item.ID))
}

func TestReserveRolledBackWithEnclosingTransaction(t *testing.T) {
	stock, conn, item := newStockFixture(t, 10)
	boom := errors.New("line write failed")

	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := stock.Reserve(context.Background(), tx, item.ID, 7); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 10, availableQty(t, conn, item.ID))
}

func TestReleaseRestoresAvailability(t *testing.T) {
	stock, conn, item := newStockFixture(t, 2)

	remaining, err := stock.Release(context.Background(), conn, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, 5, availableQty(t, conn, item.ID))
}

func TestStockValidatesInputs(t *testing.T) {
	stock, conn, item := newStockFixture(t, 2)

	_, err := stock.Reserve(context.Background(), conn, item.ID, 0)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = stock.Release(context.Background(), conn, item.ID, -1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = stock.Reserve(context.Background(), conn, item.ID+100, 1)
	assert.True(t, errors.Is(err, ErrCatalogItemNotFound))
}

func TestListBySupplierPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	supplier := dbtest.SeedSupplier(t, conn, "RFC-777")
	other := dbtest.SeedSupplier(t, conn, "RFC-888")
	for i, sku := range []string{"A", "B", "C"} {
		part := dbtest.SeedPart(t, conn, sku)
		dbtest.SeedCatalogItem(t, conn, supplier.ID, part.ID, int64(100*(i+1)), 1)
	}
	foreign := dbtest.SeedPart(t, conn, "Z")
	dbtest.SeedCatalogItem(t, conn, other.ID, foreign.ID, 100, 1)

	repo := NewRepository(conn)
	page, err := repo.ListBySupplier(context.Background(), supplier.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)
	for _, item := range page.Items {
		assert.Equal(t, supplier.ID, item.SupplierID)
		assert.NotEmpty(t, item.PartSKU)
	}

	all, err := repo.ListBySupplier(context.Background(), supplier.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Empty(t, all.NextCursor)
}
