// Package app assembles the procurement services over one database handle.
package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/catalog"
	"github.com/garagehub/procurement-backend/internal/delivery"
	"github.com/garagehub/procurement-backend/internal/inventory"
	"github.com/garagehub/procurement-backend/internal/payments"
	"github.com/garagehub/procurement-backend/internal/purchaseorders"
	"github.com/garagehub/procurement-backend/internal/suppliers"
	"github.com/garagehub/procurement-backend/pkg/logger"
	"github.com/garagehub/procurement-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Options carries the tunables shared by the services.
type Options struct {
	InitialCostMarkup decimal.Decimal
	Metrics           purchaseorders.Recorder
	Logger            *logger.Logger
}

// Services is the full procurement surface exposed over HTTP.
type Services struct {
	Suppliers      suppliers.Service
	Inventory      inventory.Service
	PurchaseOrders purchaseorders.Service
	Payments       payments.Service
}

// Build wires repositories, the outbox writer and the state machine into services.
func Build(conn *gorm.DB, tx txRunner, opts Options) (*Services, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}

	publisher := outbox.NewService(outbox.NewRepository(conn), opts.Logger)

	catalogRepo := catalog.NewRepository(conn)
	stock, err := catalog.NewStock(catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("catalog stock: %w", err)
	}

	supplierService, err := suppliers.NewService(suppliers.NewRepository(conn), catalogRepo, tx)
	if err != nil {
		return nil, fmt.Errorf("supplier service: %w", err)
	}

	inventoryRepo := inventory.NewRepository(conn)
	inventoryService, err := inventory.NewService(inventoryRepo)
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}

	processor, err := delivery.NewProcessor(inventoryRepo, publisher, opts.InitialCostMarkup)
	if err != nil {
		return nil, fmt.Errorf("delivery processor: %w", err)
	}

	orderRepo := purchaseorders.NewRepository(conn)
	machine, err := purchaseorders.NewStateMachine(orderRepo, publisher, opts.Metrics)
	if err != nil {
		return nil, fmt.Errorf("state machine: %w", err)
	}

	orderService, err := purchaseorders.NewService(purchaseorders.ServiceParams{
		Repo:         orderRepo,
		Catalog:      catalogRepo,
		Stock:        stock,
		StateMachine: machine,
		Delivery:     processor,
		Outbox:       publisher,
		Tx:           tx,
		Metrics:      opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("purchase order service: %w", err)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:         payments.NewRepository(conn),
		Orders:       orderRepo,
		StateMachine: machine,
		Outbox:       publisher,
		Tx:           tx,
		Metrics:      opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}

	return &Services{
		Suppliers:      supplierService,
		Inventory:      inventoryService,
		PurchaseOrders: orderService,
		Payments:       paymentService,
	}, nil
}
