package pricing

import (
	"testing"

	"github.com/comanda-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name       string
		unitPrice  string
		quantity   int32
		dinerCount int32
		mode       string
		want       string
	}{
		{"per unit single", "25.00", 1, 3, enum.PricingPerUnit, "25.00"},
		{"per unit multiple", "8.00", 2, 3, enum.PricingPerUnit, "16.00"},
		{"per person multiplies diners", "10.00", 2, 4, enum.PricingPerPerson, "80.00"},
		{"per person single diner", "10.00", 2, 1, enum.PricingPerPerson, "20.00"},
		{"unknown mode falls back to per unit", "10.00", 2, 4, "WEIRD", "20.00"},
		{"fractional price", "7.50", 3, 2, enum.PricingPerUnit, "22.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtotal(Line{UnitPrice: dec(tt.unitPrice), Quantity: tt.quantity}, tt.dinerCount, tt.mode)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Subtotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("10.00"), Quantity: 2},
	}

	if got := Total(lines, 4, enum.PricingPerUnit); !got.Equal(dec("20.00")) {
		t.Errorf("per-unit total = %s, want 20.00", got)
	}

	// Toggling the mode must reprice the same lines without touching them.
	if got := Total(lines, 4, enum.PricingPerPerson); !got.Equal(dec("80.00")) {
		t.Errorf("per-person total = %s, want 80.00", got)
	}
}

func TestTotalEmpty(t *testing.T) {
	if got := Total(nil, 3, enum.PricingPerUnit); !got.Equal(decimal.Zero) {
		t.Errorf("empty total = %s, want 0", got)
	}
}

func TestTotalMixedLines(t *testing.T) {
	lines := []Line{
		{UnitPrice: dec("25.00"), Quantity: 1},
		{UnitPrice: dec("8.00"), Quantity: 2},
	}
	if got := Total(lines, 3, enum.PricingPerUnit); !got.Equal(dec("41.00")) {
		t.Errorf("total = %s, want 41.00", got)
	}
}
