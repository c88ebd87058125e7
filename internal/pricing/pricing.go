// Package pricing computes line subtotals and order totals. All functions are
// pure; callers re-run them after every mutation instead of patching totals
// incrementally, so a stored total can never drift from its lines.
package pricing

import (
	"github.com/comanda-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Line is the minimal view of a cart line the engine needs.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int32
}

// Subtotal returns the price of a single line under the given mode.
//
// PER_UNIT:   unit_price * quantity
// PER_PERSON: unit_price * diner_count * quantity
//
// Any unrecognized mode is priced as PER_UNIT.
func Subtotal(line Line, dinerCount int32, mode string) decimal.Decimal {
	sub := line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity))
	if mode == enum.PricingPerPerson {
		sub = sub.Mul(decimal.NewFromInt32(dinerCount))
	}
	return sub
}

// Total returns the sum of all line subtotals. It always recomputes every
// line from scratch; a pricing-mode or diner-count change therefore reprices
// the whole order in one call.
func Total(lines []Line, dinerCount int32, mode string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(Subtotal(l, dinerCount, mode))
	}
	return total
}
