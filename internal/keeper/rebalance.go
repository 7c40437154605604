package keeper

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"liquidityKeeper/internal/lb"
	"liquidityKeeper/internal/model"
)

// Rebalance statuses.
const (
	StatusMonitored      = "monitored"
	StatusRebalanced     = "rebalanced"
	StatusGasTooHigh     = "gas_too_high"
	StatusEmpty          = "empty"
	StatusWithdrawFailed = "withdraw_failed"
	StatusStranded       = "stranded"
)

// Outcome is the result of one rebalance attempt. Information is empty
// when nothing worth reporting happened.
type Outcome struct {
	Success     bool
	Status      string
	PrevBinID   uint32
	NewBinID    uint32
	Information string
	AmountX     *big.Int
	AmountY     *big.Int
	GasPrice    *big.Int
}

// Event converts the outcome into a log record for p.
func (o Outcome) Event(p *Position, at time.Time) model.RebalanceEvent {
	ev := model.RebalanceEvent{
		ChainID:     p.chainID,
		PoolAddress: p.pool.Hex(),
		Pair:        p.Name(),
		Status:      o.Status,
		Success:     o.Success,
		PrevBinID:   o.PrevBinID,
		NewBinID:    o.NewBinID,
		Information: o.Information,
		Timestamp:   at.UTC().Format(time.RFC3339),
	}
	if o.AmountX != nil {
		ev.AmountX = lb.FormatAmount(o.AmountX, p.tokenX.Decimals)
	}
	if o.AmountY != nil {
		ev.AmountY = lb.FormatAmount(o.AmountY, p.tokenY.Decimals)
	}
	if o.GasPrice != nil {
		ev.GasPrice = o.GasPrice.String()
	}
	return ev
}

// CorrectDiapason moves the position's liquidity to the pool's active bin.
// Monitor-only positions just record and report the move.
//
// Once the withdraw is submitted the rest of the attempt ignores ctx
// cancellation, so a shutdown never leaves a rebalance half done.
func (k *Keeper) CorrectDiapason(ctx context.Context, p *Position) (Outcome, error) {
	if !p.Initialized() {
		return Outcome{}, ErrNotInitialized
	}
	prev := p.currentBinID
	if p.stranded != nil {
		return Outcome{Status: StatusStranded, PrevBinID: prev, NewBinID: prev}, nil
	}
	if p.monitorOnly {
		return k.track(ctx, p)
	}

	step, err := p.binStep(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read bin step: %w", err)
	}
	idArg := new(big.Int).SetUint64(uint64(prev))
	share, err := p.bigCall(ctx, methodBalanceOf, k.ledger.Account(), idArg)
	if err != nil {
		return Outcome{}, fmt.Errorf("read share balance: %w", err)
	}
	supply, err := p.bigCall(ctx, methodTotalSupply, idArg)
	if err != nil {
		return Outcome{}, fmt.Errorf("read total supply: %w", err)
	}
	reserveX, reserveY, err := p.binReserves(ctx, prev)
	if err != nil {
		return Outcome{}, fmt.Errorf("read bin reserves: %w", err)
	}

	out := Outcome{Status: StatusEmpty, PrevBinID: prev, NewBinID: prev}
	if share.Sign() == 0 || supply.Sign() == 0 {
		k.logger.Warn("no liquidity in current bin",
			zap.String("position", p.Name()),
			zap.Uint32("bin_id", prev),
		)
		return out, nil
	}
	out.AmountX = lb.ShareOf(share, reserveX, supply)
	out.AmountY = lb.ShareOf(share, reserveY, supply)

	gasPrice, err := k.ledger.SuggestGasPrice(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read gas price: %w", err)
	}
	out.GasPrice = gasPrice
	if gasPrice.Cmp(k.settings.GasPriceCeiling) > 0 {
		out.Status = StatusGasTooHigh
		k.logger.Info("gas price above ceiling, skipping rebalance",
			zap.String("position", p.Name()),
			zap.String("gas_price", gasPrice.String()),
			zap.String("ceiling", k.settings.GasPriceCeiling.String()),
		)
		return out, nil
	}

	txCtx := context.WithoutCancel(ctx)
	if err := k.withdraw(txCtx, p, prev, step, share, out.AmountX, out.AmountY); err != nil {
		out.Status = StatusWithdrawFailed
		k.logger.Error("withdraw failed",
			zap.String("position", p.Name()),
			zap.Uint32("bin_id", prev),
			zap.Error(err),
		)
		return out, nil
	}
	k.sleep(txCtx, k.settings.SettleDelay)

	target, err := p.activeID(txCtx)
	if err == nil {
		target, err = k.deposit(txCtx, p, out.AmountX, out.AmountY, target)
	}
	if err != nil {
		return k.strand(p, out, err), nil
	}
	k.sleep(txCtx, k.settings.SettleDelay)

	p.currentBinID = target
	out.Success = true
	out.Status = StatusRebalanced
	out.NewBinID = target
	out.Information = fmt.Sprintf("Correct diapason %s # BalanceX %s # BalanceY %s # Id %d # %s",
		p.Name(),
		lb.FormatAmount(out.AmountX, p.tokenX.Decimals),
		lb.FormatAmount(out.AmountY, p.tokenY.Decimals),
		target,
		k.timestamp(),
	)
	return out, nil
}

// track handles a monitor-only position: the report carries the bin the
// position is leaving and that bin's price.
func (k *Keeper) track(ctx context.Context, p *Position) (Outcome, error) {
	prev := p.currentBinID
	step, err := p.binStep(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read bin step: %w", err)
	}
	active, err := p.activeID(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read active bin: %w", err)
	}
	p.currentBinID = active

	return Outcome{
		Success:   true,
		Status:    StatusMonitored,
		PrevBinID: prev,
		NewBinID:  active,
		Information: fmt.Sprintf("Token pair: %s\nPrevious id - %d # Price %s # New id - %d # %s",
			p.Name(),
			prev,
			lb.FormatPrice(lb.Price(prev, step)),
			active,
			k.timestamp(),
		),
	}, nil
}

// strand marks p as withdrawn but not redeposited. The bin id is left as it
// was before the attempt.
func (k *Keeper) strand(p *Position, out Outcome, cause error) Outcome {
	p.stranded = &model.StrandedFunds{
		BinID:   out.PrevBinID,
		AmountX: out.AmountX.String(),
		AmountY: out.AmountY.String(),
		At:      k.now().UTC().Format(time.RFC3339),
	}
	out.Status = StatusStranded
	out.Information = fmt.Sprintf("STRANDED %s # withdrawn from bin %d but not redeposited # BalanceX %s # BalanceY %s # %v # %s",
		p.Name(),
		out.PrevBinID,
		lb.FormatAmount(out.AmountX, p.tokenX.Decimals),
		lb.FormatAmount(out.AmountY, p.tokenY.Decimals),
		cause,
		k.timestamp(),
	)
	k.logger.Error("deposit failed after withdraw, position stranded",
		zap.String("position", p.Name()),
		zap.Uint32("prev_bin_id", out.PrevBinID),
		zap.String("amount_x", out.AmountX.String()),
		zap.String("amount_y", out.AmountY.String()),
		zap.Error(cause),
	)
	return out
}
