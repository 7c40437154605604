package lb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Router entry points.
const (
	MethodAddLiquidity          = "addLiquidity"
	MethodAddLiquidityNative    = "addLiquidityNATIVE"
	MethodRemoveLiquidity       = "removeLiquidity"
	MethodRemoveLiquidityNative = "removeLiquidityNATIVE"
)

// DistributionPrecision is 100% in the router's distribution encoding.
var DistributionPrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// LiquidityParameters mirrors the router's addLiquidity tuple.
type LiquidityParameters struct {
	TokenX          common.Address
	TokenY          common.Address
	BinStep         *big.Int
	AmountX         *big.Int
	AmountY         *big.Int
	AmountXMin      *big.Int
	AmountYMin      *big.Int
	ActiveIdDesired *big.Int
	IdSlippage      *big.Int
	DeltaIds        []*big.Int
	DistributionX   []*big.Int
	DistributionY   []*big.Int
	To              common.Address
	RefundTo        common.Address
	Deadline        *big.Int
}

// SingleBin describes a deposit that puts all liquidity into one bin.
type SingleBin struct {
	TokenX     common.Address
	TokenY     common.Address
	BinStep    uint16
	AmountX    *big.Int
	AmountY    *big.Int
	ActiveID   uint32
	IDSlippage uint64
	DeltaID    int64
	Recipient  common.Address
	Deadline   int64
}

// Params builds the router tuple. Bins below the active id only take Y and
// bins above only take X, so the distribution follows the sign of DeltaID.
func (s SingleBin) Params() LiquidityParameters {
	distX := big.NewInt(0)
	distY := big.NewInt(0)
	if s.DeltaID >= 0 {
		distX = new(big.Int).Set(DistributionPrecision)
	}
	if s.DeltaID <= 0 {
		distY = new(big.Int).Set(DistributionPrecision)
	}

	return LiquidityParameters{
		TokenX:          s.TokenX,
		TokenY:          s.TokenY,
		BinStep:         big.NewInt(int64(s.BinStep)),
		AmountX:         orZero(s.AmountX),
		AmountY:         orZero(s.AmountY),
		AmountXMin:      MinAmount(s.AmountX),
		AmountYMin:      MinAmount(s.AmountY),
		ActiveIdDesired: big.NewInt(int64(s.ActiveID)),
		IdSlippage:      new(big.Int).SetUint64(s.IDSlippage),
		DeltaIds:        []*big.Int{big.NewInt(s.DeltaID)},
		DistributionX:   []*big.Int{distX},
		DistributionY:   []*big.Int{distY},
		To:              s.Recipient,
		RefundTo:        s.Recipient,
		Deadline:        big.NewInt(s.Deadline),
	}
}

// TargetBin is the bin that receives the liquidity.
func (s SingleBin) TargetBin() uint32 {
	return uint32(int64(s.ActiveID) + s.DeltaID)
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
