// Package pricing computes cart totals. Everything here is pure: the same
// cart and resolved discounts always produce the same quote.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is a cart entry with its resolved unit cost and discount rate.
type Line struct {
	TypeName    string
	UnitCost    decimal.Decimal
	Quantity    int
	BestPercent int
}

// Quote is the authoritative price breakdown for a cart.
type Quote struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Calculate prices the cart. The discount for each line is rounded to two
// decimal places on its own before summing; rounding once on the aggregate
// would drift from the per-line receipts shown to the buyer.
func Calculate(lines []Line) Quote {
	subtotal := decimal.Zero
	discount := decimal.Zero

	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		lineSubtotal := line.UnitCost.Mul(qty)
		subtotal = subtotal.Add(lineSubtotal)

		if line.BestPercent > 0 {
			pct := decimal.NewFromInt(int64(line.BestPercent))
			discount = discount.Add(lineSubtotal.Mul(pct).Div(hundred).Round(2))
		}
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount.Round(2),
		Total:          total.Round(2),
	}
}
