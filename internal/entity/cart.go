package domain

import "github.com/shopspring/decimal"

// CartLine is one scanned item. Owned by the caller; the checkout copies
// what it needs and never mutates the input.
type CartLine struct {
	ItemID     string
	Name       string
	UnitPrice  decimal.Decimal // >= 0
	UnitWeight decimal.Decimal // kg, >= 0
	Quantity   int64           // >= 1
}

func (l CartLine) LineAmount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

func (l CartLine) LineWeight() decimal.Decimal {
	return l.UnitWeight.Mul(decimal.NewFromInt(l.Quantity))
}

// CartTotals is derived from the lines; recompute whenever they change.
type CartTotals struct {
	TotalPrice  decimal.Decimal
	TotalWeight decimal.Decimal
	TotalCount  int64
}

func (t CartTotals) Empty() bool {
	return t.TotalCount == 0
}

// AggregateCart reduces lines to totals. Pure and total: an empty (or nil)
// input yields all-zero totals.
func AggregateCart(lines []CartLine) CartTotals {
	t := CartTotals{
		TotalPrice:  decimal.Zero,
		TotalWeight: decimal.Zero,
	}
	for _, l := range lines {
		t.TotalPrice = t.TotalPrice.Add(l.LineAmount())
		t.TotalWeight = t.TotalWeight.Add(l.LineWeight())
		t.TotalCount += l.Quantity
	}
	return t
}
