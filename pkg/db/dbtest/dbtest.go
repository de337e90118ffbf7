// Package dbtest opens throwaway sqlite databases carrying the procurement schema.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/db/models"
)

// Open returns an isolated in-memory database migrated with every procurement model.
// The pool is pinned to one connection so a transaction sees only its own writes.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:procurement_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client for services that need WithTx.
func Client(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromConn(conn), conn
}

// SeedPart inserts a part with the given sku.
func SeedPart(t testing.TB, conn *gorm.DB, sku string) models.Part {
	t.Helper()
	part := models.Part{SKU: sku, Name: "Part " + sku}
	if err := conn.Create(&part).Error; err != nil {
		t.Fatalf("seed part: %v", err)
	}
	return part
}

// SeedSupplier inserts an active supplier.
func SeedSupplier(t testing.TB, conn *gorm.DB, taxID string) models.Supplier {
	t.Helper()
	supplier := models.Supplier{TaxID: taxID, Name: "Supplier " + taxID, Status: "active"}
	if err := conn.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	return supplier
}

// SeedCatalogItem inserts an active catalog entry.
func SeedCatalogItem(t testing.TB, conn *gorm.DB, supplierID, partID, priceCents int64, availableQty int) models.CatalogItem {
	t.Helper()
	item := models.CatalogItem{
		SupplierID:     supplierID,
		PartID:         partID,
		UnitPriceCents: priceCents,
		AvailableQty:   availableQty,
		Status:         "active",
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed catalog item: %v", err)
	}
	return item
}
