package money

import "github.com/shopspring/decimal"

// ItemTotal returns quantity * unitPrice rounded half-up to two decimal
// places.
func ItemTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Subtotal sums per-item totals and rounds the sum to two decimal places.
// The sum must be rounded here, before discount and tax are applied.
func Subtotal(itemTotals []decimal.Decimal) decimal.Decimal {
	subtotal := decimal.Zero
	for _, t := range itemTotals {
		subtotal = subtotal.Add(t)
	}

	return subtotal.Round(2)
}

// OrderTotal returns max(0, round(subtotal - discount + tax, 2)). The
// intermediate value is rounded first and clamped after, so a total can never
// go negative.
func OrderTotal(subtotal, discount, tax decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount).Add(tax).Round(2)
	if total.IsNegative() {
		return decimal.Zero
	}

	return total
}
