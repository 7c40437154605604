package keeper

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"liquidityKeeper/internal/chain"
	"liquidityKeeper/internal/model"
)

// Pool methods used by the keeper.
const (
	methodGetTokenX        = "getTokenX"
	methodGetTokenY        = "getTokenY"
	methodGetActiveID      = "getActiveId"
	methodGetBinStep       = "getBinStep"
	methodGetBin           = "getBin"
	methodBalanceOf        = "balanceOf"
	methodTotalSupply      = "totalSupply"
	methodIsApprovedForAll = "isApprovedForAll"
	methodApproveForAll    = "approveForAll"
)

// Position is one tracked pool and the account's liquidity in it.
// The pool, proxy and chain are fixed at construction. Token metadata
// is resolved once by Keeper.Initialize.
type Position struct {
	pool        common.Address
	proxy       common.Address
	chainID     uint64
	native      bool
	monitorOnly bool

	depositSide   model.TokenSide
	depositAmount *big.Int

	currentBinID uint32
	stranded     *model.StrandedFunds

	tokenX model.Token
	tokenY model.Token
	pair   chain.Contract
}

// NewPosition builds a Position from its persisted record.
func NewPosition(rec model.PositionRecord) (*Position, error) {
	if !common.IsHexAddress(rec.PoolAddress) {
		return nil, fmt.Errorf("invalid pool address %q", rec.PoolAddress)
	}
	pool := common.HexToAddress(rec.PoolAddress)
	proxy := pool
	if strings.TrimSpace(rec.ProxyAddress) != "" {
		if !common.IsHexAddress(rec.ProxyAddress) {
			return nil, fmt.Errorf("invalid proxy address %q", rec.ProxyAddress)
		}
		proxy = common.HexToAddress(rec.ProxyAddress)
	}

	amount := big.NewInt(0)
	if s := strings.TrimSpace(rec.InitialDeposit.Amount); s != "" {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid initial deposit amount %q", rec.InitialDeposit.Amount)
		}
		amount = v
	}
	side := rec.InitialDeposit.Side
	if side != model.SideX && side != model.SideY {
		return nil, fmt.Errorf("invalid initial deposit side %d", side)
	}

	p := &Position{
		pool:          pool,
		proxy:         proxy,
		chainID:       rec.ChainID,
		native:        rec.NativeMode,
		monitorOnly:   rec.MonitorOnly,
		depositSide:   side,
		depositAmount: amount,
		currentBinID:  rec.CurrentBinID,
	}
	if rec.Stranded != nil {
		s := *rec.Stranded
		p.stranded = &s
	}
	return p, nil
}

// Record returns the persisted form of the position.
func (p *Position) Record() model.PositionRecord {
	rec := model.PositionRecord{
		PoolAddress:  p.pool.Hex(),
		ChainID:      p.chainID,
		CurrentBinID: p.currentBinID,
		NativeMode:   p.native,
		MonitorOnly:  p.monitorOnly,
		InitialDeposit: model.InitialDeposit{
			Side:   p.depositSide,
			Amount: p.depositAmount.String(),
		},
	}
	if p.proxy != p.pool {
		rec.ProxyAddress = p.proxy.Hex()
	}
	if p.stranded != nil {
		s := *p.stranded
		rec.Stranded = &s
	}
	return rec
}

// Name is the pair label, e.g. "WAVAX-USDC".
func (p *Position) Name() string {
	if p.tokenX.Symbol == "" && p.tokenY.Symbol == "" {
		return p.pool.Hex()
	}
	return p.tokenX.Symbol + "-" + p.tokenY.Symbol
}

// Pool is the pool contract address.
func (p *Position) Pool() common.Address { return p.pool }

// ChainID is the network the pool lives on.
func (p *Position) ChainID() uint64 { return p.chainID }

// CurrentBinID is the bin the position's liquidity sits in. Zero means unfunded.
func (p *Position) CurrentBinID() uint32 { return p.currentBinID }

func (p *Position) MonitorOnly() bool { return p.monitorOnly }

func (p *Position) NativeMode() bool { return p.native }

func (p *Position) TokenX() model.Token { return p.tokenX }

func (p *Position) TokenY() model.Token { return p.tokenY }

// Initialized reports whether Initialize completed for the position.
func (p *Position) Initialized() bool { return p.pair != nil }

// Stranded reports whether the position's funds were withdrawn and not redeposited.
func (p *Position) Stranded() bool { return p.stranded != nil }

// CheckChanged reports whether the pool's active bin differs from the
// position's current bin. An uninitialized position is never changed.
func (p *Position) CheckChanged(ctx context.Context) (bool, error) {
	if p.pair == nil {
		return false, nil
	}
	active, err := p.activeID(ctx)
	if err != nil {
		return false, err
	}
	return active != p.currentBinID, nil
}

func (p *Position) activeID(ctx context.Context) (uint32, error) {
	values, err := p.pair.Call(ctx, methodGetActiveID)
	if err != nil {
		return 0, err
	}
	v, err := single(values, methodGetActiveID)
	if err != nil {
		return 0, err
	}
	id, err := asBinID(v)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", methodGetActiveID, err)
	}
	return id, nil
}

func (p *Position) binStep(ctx context.Context) (uint16, error) {
	values, err := p.pair.Call(ctx, methodGetBinStep)
	if err != nil {
		return 0, err
	}
	v, err := single(values, methodGetBinStep)
	if err != nil {
		return 0, err
	}
	step, err := asUint16(v)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", methodGetBinStep, err)
	}
	return step, nil
}

func (p *Position) bigCall(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := p.pair.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := single(values, method)
	if err != nil {
		return nil, err
	}
	out, err := asBigInt(v)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return out, nil
}

// binReserves returns the raw reserves of one bin.
func (p *Position) binReserves(ctx context.Context, id uint32) (*big.Int, *big.Int, error) {
	values, err := p.pair.Call(ctx, methodGetBin, new(big.Int).SetUint64(uint64(id)))
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("%s returned %d values", methodGetBin, len(values))
	}
	reserveX, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("decode reserveX: %w", err)
	}
	reserveY, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("decode reserveY: %w", err)
	}
	return reserveX, reserveY, nil
}
