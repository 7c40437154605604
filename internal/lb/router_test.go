package lb

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMinAmount(t *testing.T) {
	cases := []struct {
		in   int64
		want int64
	}{
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 100, want: 99},
		{in: 1999, want: 1980},
	}
	for _, tc := range cases {
		got := MinAmount(big.NewInt(tc.in))
		if got.Int64() != tc.want {
			t.Fatalf("min amount of %d: %s != %d", tc.in, got, tc.want)
		}
	}
	if MinAmount(nil).Sign() != 0 {
		t.Fatalf("nil amount should map to zero")
	}
}

func TestShareOfTruncates(t *testing.T) {
	got := ShareOf(big.NewInt(1), big.NewInt(10), big.NewInt(3))
	if got.Int64() != 3 {
		t.Fatalf("share mismatch: %s", got)
	}
	if ShareOf(big.NewInt(1), big.NewInt(10), big.NewInt(0)).Sign() != 0 {
		t.Fatalf("zero supply should yield zero")
	}
}

func TestFormatAmount(t *testing.T) {
	value, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatAmount(value, 18); got != "1.5" {
		t.Fatalf("format mismatch: %s", got)
	}
	if got := FormatAmount(big.NewInt(2500000), 6); got != "2.5" {
		t.Fatalf("format mismatch: %s", got)
	}
	if got := FormatAmount(nil, 18); got != "0" {
		t.Fatalf("format mismatch: %s", got)
	}
}

func TestSingleBinParamsPackWithRouterABI(t *testing.T) {
	routerABI, err := RouterABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	recipient := common.HexToAddress("0x3333333333333333333333333333333333333333")
	deposit := SingleBin{
		TokenX:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenY:    common.HexToAddress("0x2222222222222222222222222222222222222222"),
		BinStep:   25,
		AmountX:   big.NewInt(1000),
		AmountY:   big.NewInt(2000),
		ActiveID:  8388608,
		Recipient: recipient,
		Deadline:  1700000000,
	}

	params := deposit.Params()
	if params.AmountXMin.Int64() != 990 || params.AmountYMin.Int64() != 1980 {
		t.Fatalf("min amounts mismatch: %s %s", params.AmountXMin, params.AmountYMin)
	}
	if params.DistributionX[0].Cmp(DistributionPrecision) != 0 || params.DistributionY[0].Cmp(DistributionPrecision) != 0 {
		t.Fatalf("distribution should put everything in one bin")
	}
	if deposit.TargetBin() != 8388608 {
		t.Fatalf("target bin mismatch: %d", deposit.TargetBin())
	}

	data, err := routerABI.Pack(MethodAddLiquidity, params)
	if err != nil {
		t.Fatalf("pack addLiquidity: %v", err)
	}
	if len(data) < 4 {
		t.Fatalf("packed data too short")
	}

	_, err = routerABI.Pack(MethodRemoveLiquidityNative,
		deposit.TokenX,
		uint16(25),
		big.NewInt(1),
		big.NewInt(1),
		[]*big.Int{big.NewInt(8388608)},
		[]*big.Int{big.NewInt(10)},
		recipient,
		big.NewInt(1700000000),
	)
	if err != nil {
		t.Fatalf("pack removeLiquidityNATIVE: %v", err)
	}
}

func TestSingleBinNegativeDeltaOnlyTakesY(t *testing.T) {
	deposit := SingleBin{ActiveID: 100, DeltaID: -1, AmountX: big.NewInt(1), AmountY: big.NewInt(1)}
	params := deposit.Params()
	if params.DistributionX[0].Sign() != 0 {
		t.Fatalf("bins below active should not take X")
	}
	if params.DistributionY[0].Cmp(DistributionPrecision) != 0 {
		t.Fatalf("bins below active should take all Y")
	}
	if deposit.TargetBin() != 99 {
		t.Fatalf("target bin mismatch: %d", deposit.TargetBin())
	}
}
