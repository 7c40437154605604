package keeper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityKeeper/internal/lb"
)

// deposit adds liquidity to a single bin around activeID and returns the
// bin that received it. Native pools pay the Y side as value.
func (k *Keeper) deposit(ctx context.Context, p *Position, amountX, amountY *big.Int, activeID uint32) (uint32, error) {
	router, err := k.routerContract(ctx)
	if err != nil {
		return 0, err
	}
	step, err := p.binStep(ctx)
	if err != nil {
		return 0, fmt.Errorf("read bin step: %w", err)
	}

	bin := lb.SingleBin{
		TokenX:    common.HexToAddress(p.tokenX.Address),
		TokenY:    common.HexToAddress(p.tokenY.Address),
		BinStep:   step,
		AmountX:   amountX,
		AmountY:   amountY,
		ActiveID:  activeID,
		Recipient: k.ledger.Account(),
		Deadline:  k.deadline(),
	}
	method := lb.MethodAddLiquidity
	var value *big.Int
	if p.native {
		bin.IDSlippage = k.settings.NativeIDSlippage
		bin.DeltaID = k.settings.NativeDeltaID
		method = lb.MethodAddLiquidityNative
		value = new(big.Int).Set(amountY)
	}

	k.logger.Info("depositing liquidity",
		zap.String("position", p.Name()),
		zap.Uint32("bin_id", bin.TargetBin()),
		zap.String("amount_x", amountX.String()),
		zap.String("amount_y", amountY.String()),
	)
	if err := k.transact(ctx, router, value, method, bin.Params()); err != nil {
		return 0, err
	}
	return bin.TargetBin(), nil
}

// withdraw burns share from bin binID with 99% minimum outputs.
func (k *Keeper) withdraw(ctx context.Context, p *Position, binID uint32, step uint16, share, amountX, amountY *big.Int) error {
	router, err := k.routerContract(ctx)
	if err != nil {
		return err
	}
	ids := []*big.Int{new(big.Int).SetUint64(uint64(binID))}
	amounts := []*big.Int{new(big.Int).Set(share)}
	to := k.ledger.Account()
	deadline := big.NewInt(k.deadline())

	k.logger.Info("withdrawing liquidity",
		zap.String("position", p.Name()),
		zap.Uint32("bin_id", binID),
		zap.String("share", share.String()),
	)
	if p.native {
		return k.transact(ctx, router, nil, lb.MethodRemoveLiquidityNative,
			common.HexToAddress(p.tokenX.Address), step,
			lb.MinAmount(amountX), lb.MinAmount(amountY),
			ids, amounts, to, deadline,
		)
	}
	return k.transact(ctx, router, nil, lb.MethodRemoveLiquidity,
		common.HexToAddress(p.tokenX.Address), common.HexToAddress(p.tokenY.Address), step,
		lb.MinAmount(amountX), lb.MinAmount(amountY),
		ids, amounts, to, deadline,
	)
}
