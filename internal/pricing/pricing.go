// Package pricing holds the discount arithmetic for offers. Every function is
// pure; an invalid input yields ok == false instead of an error so callers
// decide whether that is a form error or simply nothing to display.
package pricing

import "github.com/shopspring/decimal"

// Money amounts are kept to cents.
const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// PercentFromPrices returns the whole discount percentage implied by the two
// prices, rounded half away from zero. ok is false unless
// 0 < discounted < original.
func PercentFromPrices(original, discounted decimal.Decimal) (int, bool) {
	if !validPair(original, discounted) {
		return 0, false
	}
	pct := original.Sub(discounted).Mul(hundred).Div(original).Round(0)
	return int(pct.IntPart()), true
}

// PriceFromPercent applies percent to original, rounded to cents. ok is false
// unless original > 0 and percent is in [0, 100].
func PriceFromPercent(original decimal.Decimal, percent int) (decimal.Decimal, bool) {
	if !original.IsPositive() || !IsPercentValid(percent) {
		return decimal.Zero, false
	}
	off := original.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	return original.Sub(off).Round(moneyPlaces), true
}

// Savings returns original - discounted rounded to cents, under the same
// guard as PercentFromPrices.
func Savings(original, discounted decimal.Decimal) (decimal.Decimal, bool) {
	if !validPair(original, discounted) {
		return decimal.Zero, false
	}
	return original.Sub(discounted).Round(moneyPlaces), true
}

// IsPercentValid reports whether percent is in [0, 100].
func IsPercentValid(percent int) bool {
	return percent >= 0 && percent <= 100
}

// Breakdown is the discount summary shown alongside an offer.
type Breakdown struct {
	Percent int             `json:"percent"`
	Savings decimal.Decimal `json:"savings"`
}

// Summary bundles PercentFromPrices and Savings.
func Summary(original, discounted decimal.Decimal) (Breakdown, bool) {
	pct, ok := PercentFromPrices(original, discounted)
	if !ok {
		return Breakdown{}, false
	}
	saved, _ := Savings(original, discounted)
	return Breakdown{Percent: pct, Savings: saved}, true
}

func validPair(original, discounted decimal.Decimal) bool {
	return original.IsPositive() && discounted.IsPositive() && discounted.LessThan(original)
}
