// Package service holds the write-side use cases: submitting a composed cart
// to the order store and advancing or cancelling kitchen items.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/comanda-pos/api/internal/cart"
	"github.com/comanda-pos/api/internal/signal"
	"github.com/comanda-pos/api/internal/store"
	"github.com/google/uuid"
)

// Errors returned by the submitter.
var (
	ErrEmptyOrder = errors.New("order has no items")
)

// SubmitStore is the write side of the order store the submitter needs.
type SubmitStore interface {
	CreateOrder(ctx context.Context, p store.CreateOrderParams) (uuid.UUID, error)
	CreateOrderItem(ctx context.Context, p store.CreateItemParams) (uuid.UUID, error)
}

// SubmitResult reports what a submit attempt actually persisted. FailedLine
// is -1 on full success; otherwise it is the index of the first line whose
// item creation failed. Lines before it were created and are NOT rolled
// back — the operator is told instead.
type SubmitResult struct {
	OrderID    uuid.UUID
	ItemIDs    []uuid.UUID
	FailedLine int
	Cleared    bool
}

// Submitter converts a cart snapshot into order-store writes and announces
// the new order on the signal bus.
type Submitter struct {
	store SubmitStore
	bus   signal.Bus
}

// NewSubmitter creates a Submitter.
func NewSubmitter(st SubmitStore, bus signal.Bus) *Submitter {
	return &Submitter{store: st, bus: bus}
}

// Submit persists the ledger's current order. The ledger is left untouched
// on any failure so the operator can retry without recomposing; it is
// cleared only after every item was created, and only if it is still on the
// generation the snapshot was taken from (a cleared-and-restarted session is
// never corrupted by a stale result).
//
// Item creations run sequentially in line order; downstream numbering and
// printing depend on that order.
func (s *Submitter) Submit(ctx context.Context, ledger *cart.Ledger) (*SubmitResult, error) {
	snap := ledger.Snapshot()
	if snap.Empty() {
		return nil, ErrEmptyOrder
	}

	orderID, err := s.store.CreateOrder(ctx, store.CreateOrderParams{
		TableID:      snap.TableID,
		CustomerName: snap.CustomerName,
		DinerCount:   snap.DinerCount,
		PricingMode:  snap.PricingMode,
		Total:        snap.Total,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	result := &SubmitResult{OrderID: orderID, FailedLine: -1}
	for i, line := range snap.Lines {
		itemID, err := s.store.CreateOrderItem(ctx, store.CreateItemParams{
			OrderID:   orderID,
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Station:   line.Station,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
		if err != nil {
			// Known gap: the order and the first i items exist, the rest do
			// not. Report it; there is no compensating delete or retry.
			result.FailedLine = i
			return result, fmt.Errorf("create item for line %d of %d: %w", i+1, len(snap.Lines), err)
		}
		result.ItemIDs = append(result.ItemIDs, itemID)
	}

	result.Cleared = ledger.ClearIfCurrent(snap.Generation)

	// The signal is advisory. Displays poll on an interval regardless, so a
	// publish failure is logged, not returned.
	if err := s.bus.Publish(ctx, orderID); err != nil {
		log.Printf("service: publish new-order signal: %v", err)
	}
	return result, nil
}
