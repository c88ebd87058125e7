// Package cart owns the in-progress order being composed by an operator: the
// selected table, diner count, pricing mode, and line items. A Ledger belongs
// to exactly one ordering session and must not be mutated concurrently.
package cart

import (
	"errors"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/comanda-pos/api/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by ledger operations.
var (
	ErrInvalidTable     = errors.New("table capacity must be >= 1")
	ErrNoActiveOrder    = errors.New("no active order")
	ErrInvalidPricing   = errors.New("invalid pricing_mode")
	ErrInvalidUnitPrice = errors.New("unit_price must be >= 0")
)

// Warning is a non-fatal condition surfaced to the operator. The requested
// operation still took effect, possibly with a corrected value.
type Warning string

const (
	WarnNone             Warning = ""
	WarnCapacityExceeded Warning = "CAPACITY_EXCEEDED"
)

// Line is one product on the in-progress order. UnitPrice and Station are
// snapshots taken when the product was first added; they are never re-fetched.
type Line struct {
	ProductID   uuid.UUID
	ProductName string
	Station     string
	UnitPrice   decimal.Decimal
	Quantity    int32
	Notes       string
	Subtotal    decimal.Decimal
}

// Order is the ledger's current state.
type Order struct {
	TableID       uuid.UUID
	TableCapacity int32
	CustomerName  string
	DinerCount    int32
	PricingMode   string
	Status        string
	Lines         []Line
	Total         decimal.Decimal
}

// AddParams carries the product metadata captured at add time.
type AddParams struct {
	ProductID   uuid.UUID
	ProductName string
	Station     string
	UnitPrice   decimal.Decimal
	Notes       string
}

// Snapshot is an immutable copy of the ledger taken for submission. The
// generation ties any async result back to the ledger state it was taken
// from: if the ledger has since been cleared or restarted, the result is
// stale and must not touch the newer session.
type Snapshot struct {
	Generation   uint64
	TableID      uuid.UUID
	CustomerName string
	DinerCount   int32
	PricingMode  string
	Lines        []Line
	Total        decimal.Decimal
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool { return len(s.Lines) == 0 }

// Ledger holds the order being composed. All mutating operations recompute
// every line subtotal and the order total from scratch through the pricing
// engine; nothing is patched incrementally.
type Ledger struct {
	order      *Order
	generation uint64
}

// NewLedger returns an empty ledger with no active order.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Start discards any previous order and begins a fresh one for the given
// table. The diner count starts at 1 and the pricing mode at PER_UNIT.
func (l *Ledger) Start(tableID uuid.UUID, customerName string, tableCapacity int32) error {
	if tableCapacity < 1 {
		return ErrInvalidTable
	}
	l.generation++
	l.order = &Order{
		TableID:       tableID,
		TableCapacity: tableCapacity,
		CustomerName:  customerName,
		DinerCount:    1,
		PricingMode:   enum.PricingPerUnit,
		Status:        enum.OrderStatusPending,
		Total:         decimal.Zero,
	}
	return nil
}

// AddProduct adds one unit of a product. A repeated add of the same product
// increments the existing line instead of appending a duplicate.
func (l *Ledger) AddProduct(p AddParams) error {
	if l.order == nil {
		return ErrNoActiveOrder
	}
	if p.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	for i := range l.order.Lines {
		if l.order.Lines[i].ProductID == p.ProductID {
			l.order.Lines[i].Quantity++
			l.recompute()
			return nil
		}
	}
	l.order.Lines = append(l.order.Lines, Line{
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Station:     p.Station,
		UnitPrice:   p.UnitPrice,
		Quantity:    1,
		Notes:       p.Notes,
	})
	l.recompute()
	return nil
}

// SetQuantity sets a line's quantity. A quantity <= 0 removes the line.
// Setting an absent product is a no-op, not an error.
func (l *Ledger) SetQuantity(productID uuid.UUID, quantity int32) error {
	if l.order == nil {
		return ErrNoActiveOrder
	}
	if quantity <= 0 {
		l.removeLine(productID)
		l.recompute()
		return nil
	}
	for i := range l.order.Lines {
		if l.order.Lines[i].ProductID == productID {
			l.order.Lines[i].Quantity = quantity
			l.recompute()
			return nil
		}
	}
	return nil
}

// RemoveProduct removes the line for the given product. Idempotent.
func (l *Ledger) RemoveProduct(productID uuid.UUID) error {
	if l.order == nil {
		return ErrNoActiveOrder
	}
	l.removeLine(productID)
	l.recompute()
	return nil
}

// SetDinerCount updates the diner count, clamped to [1, table capacity].
// A clamped request is corrected and reported via WarnCapacityExceeded, never
// rejected.
func (l *Ledger) SetDinerCount(n int32) (Warning, error) {
	if l.order == nil {
		return WarnNone, ErrNoActiveOrder
	}
	warning := WarnNone
	if n > l.order.TableCapacity {
		n = l.order.TableCapacity
		warning = WarnCapacityExceeded
	}
	if n < 1 {
		n = 1
	}
	l.order.DinerCount = n
	l.recompute()
	return warning, nil
}

// SetPricingMode switches between per-unit and per-person pricing and
// reprices every line under the new mode.
func (l *Ledger) SetPricingMode(mode string) error {
	if l.order == nil {
		return ErrNoActiveOrder
	}
	if mode != enum.PricingPerUnit && mode != enum.PricingPerPerson {
		return ErrInvalidPricing
	}
	l.order.PricingMode = mode
	l.recompute()
	return nil
}

// Clear discards the active order entirely.
func (l *Ledger) Clear() {
	l.generation++
	l.order = nil
}

// Order returns the active order, or nil when none has been started. The
// returned value is the ledger's own state; callers must not retain it
// across mutations.
func (l *Ledger) Order() *Order { return l.order }

// Generation returns the current ledger generation.
func (l *Ledger) Generation() uint64 { return l.generation }

// Snapshot returns a deep copy of the active order tagged with the current
// generation, or an empty snapshot when no order is active.
func (l *Ledger) Snapshot() Snapshot {
	if l.order == nil {
		return Snapshot{Generation: l.generation, Total: decimal.Zero}
	}
	lines := make([]Line, len(l.order.Lines))
	copy(lines, l.order.Lines)
	return Snapshot{
		Generation:   l.generation,
		TableID:      l.order.TableID,
		CustomerName: l.order.CustomerName,
		DinerCount:   l.order.DinerCount,
		PricingMode:  l.order.PricingMode,
		Lines:        lines,
		Total:        l.order.Total,
	}
}

// ClearIfCurrent clears the ledger only if it is still at the given
// generation. It returns false when the ledger has moved on, in which case
// the caller's result is stale and must be dropped.
func (l *Ledger) ClearIfCurrent(generation uint64) bool {
	if l.generation != generation {
		return false
	}
	l.Clear()
	return true
}

func (l *Ledger) removeLine(productID uuid.UUID) {
	lines := l.order.Lines[:0]
	for _, ln := range l.order.Lines {
		if ln.ProductID != productID {
			lines = append(lines, ln)
		}
	}
	l.order.Lines = lines
}

// recompute reprices every line and the order total from scratch.
func (l *Ledger) recompute() {
	o := l.order
	plines := make([]pricing.Line, len(o.Lines))
	for i := range o.Lines {
		pl := pricing.Line{UnitPrice: o.Lines[i].UnitPrice, Quantity: o.Lines[i].Quantity}
		o.Lines[i].Subtotal = pricing.Subtotal(pl, o.DinerCount, o.PricingMode)
		plines[i] = pl
	}
	o.Total = pricing.Total(plines, o.DinerCount, o.PricingMode)
}
