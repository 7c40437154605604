package lb

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// slippageDivisor sets the 1% tolerance used for minimum-out amounts.
const slippageDivisor = 100

// MinAmount returns 99% of amount, truncated. Zero stays zero.
func MinAmount(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0)
	}
	cut := new(big.Int).Quo(amount, big.NewInt(slippageDivisor))
	return new(big.Int).Sub(amount, cut)
}

// ShareOf returns share*reserve/supply with truncating division.
func ShareOf(share, reserve, supply *big.Int) *big.Int {
	if share == nil || reserve == nil || supply == nil || supply.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(share, reserve)
	return out.Quo(out, supply)
}

// FormatAmount renders a base-unit amount in human units.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
