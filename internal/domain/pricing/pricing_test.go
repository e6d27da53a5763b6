package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestCalculate_NoDiscounts(t *testing.T) {
	quote := Calculate([]Line{
		{TypeName: "ADULT", UnitCost: mustDec(t, "29.90"), Quantity: 2},
		{TypeName: "CHILD", UnitCost: mustDec(t, "19.90"), Quantity: 1},
	})

	assert.True(t, mustDec(t, "79.70").Equal(quote.Subtotal))
	assert.True(t, decimal.Zero.Equal(quote.DiscountAmount))
	assert.True(t, mustDec(t, "79.70").Equal(quote.Total))
}

func TestCalculate_PercentagePerLine(t *testing.T) {
	quote := Calculate([]Line{
		{TypeName: "ADULT", UnitCost: mustDec(t, "29.90"), Quantity: 2, BestPercent: 10},
		{TypeName: "CHILD", UnitCost: mustDec(t, "19.90"), Quantity: 1},
	})

	// 10% of 59.80 = 5.98; the child line is untouched.
	assert.True(t, mustDec(t, "79.70").Equal(quote.Subtotal))
	assert.True(t, mustDec(t, "5.98").Equal(quote.DiscountAmount))
	assert.True(t, mustDec(t, "73.72").Equal(quote.Total))
}

func TestCalculate_RoundsHalfUpPerLine(t *testing.T) {
	// 10% of 19.995 = 1.9995, rounds to 2.00 before summing.
	quote := Calculate([]Line{
		{TypeName: "ODD", UnitCost: mustDec(t, "6.665"), Quantity: 3, BestPercent: 10},
	})

	assert.True(t, mustDec(t, "2.00").Equal(quote.DiscountAmount))
	assert.True(t, mustDec(t, "18.00").Equal(quote.Total))
}

func TestCalculate_PerLineRoundingBeforeSum(t *testing.T) {
	// Two lines whose discounts each round up: summing first and rounding
	// once would lose a cent relative to the per-line receipts.
	quote := Calculate([]Line{
		{TypeName: "A", UnitCost: mustDec(t, "1.25"), Quantity: 1, BestPercent: 10}, // 0.125 -> 0.13
		{TypeName: "B", UnitCost: mustDec(t, "1.25"), Quantity: 1, BestPercent: 10}, // 0.125 -> 0.13
	})

	assert.True(t, mustDec(t, "0.26").Equal(quote.DiscountAmount))
	assert.True(t, mustDec(t, "2.24").Equal(quote.Total))
}

func TestCalculate_FullDiscountFloorsAtZero(t *testing.T) {
	quote := Calculate([]Line{
		{TypeName: "FREE", UnitCost: mustDec(t, "10.00"), Quantity: 1, BestPercent: 100},
	})

	assert.True(t, decimal.Zero.Equal(quote.Total))
	assert.True(t, mustDec(t, "10.00").Equal(quote.DiscountAmount))
}

func TestCalculate_RepeatedTypePricedPerLine(t *testing.T) {
	// The same type may appear on several lines; each line keeps its own
	// subtotal and discount.
	quote := Calculate([]Line{
		{TypeName: "ADULT", UnitCost: mustDec(t, "29.90"), Quantity: 2, BestPercent: 10},
		{TypeName: "ADULT", UnitCost: mustDec(t, "29.90"), Quantity: 1, BestPercent: 10},
	})

	// 10% of 59.80 = 5.98 plus 10% of 29.90 = 2.99.
	assert.True(t, mustDec(t, "89.70").Equal(quote.Subtotal))
	assert.True(t, mustDec(t, "8.97").Equal(quote.DiscountAmount))
	assert.True(t, mustDec(t, "80.73").Equal(quote.Total))
}

func TestCalculate_Deterministic(t *testing.T) {
	lines := []Line{
		{TypeName: "ADULT", UnitCost: mustDec(t, "29.90"), Quantity: 3, BestPercent: 15},
		{TypeName: "CHILD", UnitCost: mustDec(t, "19.90"), Quantity: 2, BestPercent: 20},
	}

	first := Calculate(lines)
	second := Calculate(lines)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestCalculate_EmptyCart(t *testing.T) {
	quote := Calculate(nil)

	assert.True(t, decimal.Zero.Equal(quote.Subtotal))
	assert.True(t, decimal.Zero.Equal(quote.Total))
}
