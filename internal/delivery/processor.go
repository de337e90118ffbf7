package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/garagehub/procurement-backend/internal/inventory"
	dbpkg "github.com/garagehub/procurement-backend/pkg/db"
	"github.com/garagehub/procurement-backend/pkg/db/models"
	"github.com/garagehub/procurement-backend/pkg/enums"
	pkgerrors "github.com/garagehub/procurement-backend/pkg/errors"
	"github.com/garagehub/procurement-backend/pkg/outbox"
	"github.com/garagehub/procurement-backend/pkg/outbox/payloads"
	"github.com/garagehub/procurement-backend/pkg/types"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Receipt lists every inventory row a delivery touched.
type Receipt struct {
	OrderID     int64         `json:"order_id"`
	DeliveredAt time.Time     `json:"delivered_at"`
	Items       []ReceiptItem `json:"items"`
}

type ReceiptItem struct {
	PartID        int64 `json:"part_id"`
	QtyReceived   int   `json:"qty_received"`
	Quantity      int   `json:"quantity"`
	UnitCostCents int64 `json:"unit_cost_cents"`
	Created       bool  `json:"created"`
}

// Processor merges delivered order lines into the shop inventory.
//
// A part seen for the first time is stocked at the line price plus the
// configured markup. Later deliveries only add quantity; the recorded unit
// cost is never revised.
type Processor struct {
	inventory inventory.Repository
	outbox    outboxPublisher
	markup    decimal.Decimal
	now       func() time.Time
}

func NewProcessor(repo inventory.Repository, outbox outboxPublisher, markup decimal.Decimal) (*Processor, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if markup.IsNegative() {
		return nil, fmt.Errorf("markup must not be negative")
	}
	return &Processor{
		inventory: repo,
		outbox:    outbox,
		markup:    markup,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Receive runs inside the delivery transaction; any error must abort it.
func (p *Processor) Receive(ctx context.Context, tx *gorm.DB, order *models.PurchaseOrder, lines []models.OrderLine) (*Receipt, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if err := validateLines(order.ID, lines); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order lines cannot be received").
			WithDetails(map[string]any{"problems": multierrStrings(err)})
	}

	repo := p.inventory.WithTx(tx)
	now := p.now()
	receipt := &Receipt{OrderID: order.ID, DeliveredAt: now, Items: make([]ReceiptItem, 0, len(lines))}

	for _, line := range lines {
		item, err := p.mergeLine(ctx, repo, line, now)
		if err != nil {
			return nil, err
		}
		receipt.Items = append(receipt.Items, item)
	}

	event := payloads.InventoryReplenishedEvent{
		OrderID: order.ID,
		Items:   make([]payloads.InventoryMovedEntry, 0, len(receipt.Items)),
	}
	for _, item := range receipt.Items {
		event.Items = append(event.Items, payloads.InventoryMovedEntry{
			PartID:        item.PartID,
			QtyReceived:   item.QtyReceived,
			Quantity:      item.Quantity,
			UnitCostCents: item.UnitCostCents,
			Created:       item.Created,
		})
	}
	if err := p.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventInventoryReplenished,
		AggregateType: enums.AggregatePurchaseOrder,
		AggregateID:   order.ID,
		Data:          event,
		OccurredAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit inventory replenished")
	}
	return receipt, nil
}

func (p *Processor) mergeLine(ctx context.Context, repo inventory.Repository, line models.OrderLine, now time.Time) (ReceiptItem, error) {
	existing, err := repo.FindByPartForUpdate(ctx, line.PartID)
	switch {
	case err == nil:
		if err := repo.IncrementQuantity(ctx, existing.ID, line.Qty, now); err != nil {
			return ReceiptItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replenish inventory")
		}
		return ReceiptItem{
			PartID:        line.PartID,
			QtyReceived:   line.Qty,
			Quantity:      existing.Quantity + line.Qty,
			UnitCostCents: existing.UnitCostCents,
		}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := repo.Create(ctx, &models.InventoryItem{
			PartID:        line.PartID,
			Quantity:      line.Qty,
			UnitCostCents: types.ApplyMarkup(line.UnitPriceCents, p.markup),
		})
		if err != nil {
			// Another delivery stocked the part between the lookup and the insert.
			if dbpkg.IsUniqueViolation(err, "") {
				return ReceiptItem{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "inventory for part was created concurrently; retry the delivery").
					WithDetails(map[string]any{"part_id": line.PartID})
			}
			return ReceiptItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create inventory")
		}
		return ReceiptItem{
			PartID:        created.PartID,
			QtyReceived:   line.Qty,
			Quantity:      created.Quantity,
			UnitCostCents: created.UnitCostCents,
			Created:       true,
		}, nil
	default:
		return ReceiptItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
}

func validateLines(orderID int64, lines []models.OrderLine) error {
	var errs error
	for _, line := range lines {
		if line.OrderID != orderID {
			errs = multierr.Append(errs, fmt.Errorf("line %d belongs to order %d", line.ID, line.OrderID))
		}
		if line.PartID <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d has no part", line.ID))
		}
		if line.Qty <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d has non-positive qty %d", line.ID, line.Qty))
		}
	}
	return errs
}

func multierrStrings(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
