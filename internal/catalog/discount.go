package catalog

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountPercent returns the rounded percentage discount implied by the
// original price, or 0 when no discount applies. The originalPrice > price
// guard keeps the result non-negative and the division safe.
func DiscountPercent(price, originalPrice decimal.Decimal) int64 {
	if !originalPrice.GreaterThan(price) {
		return 0
	}
	return originalPrice.Sub(price).
		Div(originalPrice).
		Mul(hundred).
		Round(0).
		IntPart()
}
