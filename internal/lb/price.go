package lb

import "github.com/shopspring/decimal"

const (
	// ZeroPriceBin is the bin id whose price is exactly 1.
	ZeroPriceBin = 1 << 23

	// PriceDigits is the number of fractional digits used when reporting a price.
	PriceDigits = 8

	// pricePrecision bounds the fractional digits kept between multiplications.
	pricePrecision = 36
)

var one = decimal.NewFromInt(1)

// Price returns the quote price of a bin: (1 + binStep/10000)^(activeID - 2^23).
// Negative exponents are computed as the inverse of the positive power.
func Price(activeID uint32, binStep uint16) decimal.Decimal {
	exponent := int64(activeID) - ZeroPriceBin
	if exponent == 0 {
		return one
	}

	base := stepBase(binStep)
	positive := exponent
	if positive < 0 {
		positive = -positive
	}

	result := one
	for i := int64(0); i < positive; i++ {
		result = result.Mul(base).Round(pricePrecision)
	}

	if exponent < 0 {
		return one.DivRound(result, pricePrecision)
	}
	return result
}

// FormatPrice renders a price with PriceDigits fractional digits.
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(PriceDigits)
}

// stepBase returns 1 + binStep/10000 without binary rounding.
func stepBase(binStep uint16) decimal.Decimal {
	return one.Add(decimal.New(int64(binStep), -4))
}
