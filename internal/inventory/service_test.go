package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garagehub/procurement-backend/pkg/db/dbtest"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/pagination"
)

func TestGetReturnsInventoryWithPart(t *testing.T) {
	conn := dbtest.Open(t)
	part := dbtest.SeedPart(t, conn, "SPK-PLUG")
	require.NoError(t, conn.Create(&models.InventoryItem{PartID: part.ID, Quantity: 8, UnitCostCents: 425}).Error)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	item, err := svc.Get(context.Background(), part.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, item.Quantity)
	assert.Equal(t, "SPK-PLUG", item.PartSKU)
	assert.Equal(t, "4.25", item.UnitCost)
}

func TestGetMissingAndInvalidPart(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrInventoryNotFound))

	_, err = svc.Get(context.Background(), 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListPaginatesAndRejectsBadCursor(t *testing.T) {
	conn := dbtest.Open(t)
	for _, sku := range []string{"A", "B", "C"} {
		part := dbtest.SeedPart(t, conn, sku)
		require.NoError(t, conn.Create(&models.InventoryItem{PartID: part.ID, Quantity: 1, UnitCostCents: 100}).Error)
	}
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	page, err := svc.List(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	_, err = svc.List(context.Background(), pagination.Params{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestIncrementQuantityKeepsUnitCost(t *testing.T) {
	conn := dbtest.Open(t)
	part := dbtest.SeedPart(t, conn, "AIR-FLT")
	repo := NewRepository(conn)
	created, err := repo.Create(context.Background(), &models.InventoryItem{PartID: part.ID, Quantity: 3, UnitCostCents: 990})
	require.NoError(t, err)

	require.NoError(t, repo.IncrementQuantity(context.Background(), created.ID, 4, created.CreatedAt))

	reloaded, err := repo.FindByPart(context.Background(), part.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.Quantity)
	assert.Equal(t, int64(990), reloaded.UnitCostCents)
}
