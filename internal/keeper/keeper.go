package keeper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityKeeper/internal/chain"
	"liquidityKeeper/internal/explorer"
	"liquidityKeeper/internal/lb"
)

// ErrNotInitialized is returned when a position is used before Initialize.
var ErrNotInitialized = errors.New("position not initialized")

// Ledger binds contracts and answers network-wide queries for one account.
type Ledger interface {
	Bind(address common.Address, parsed abi.ABI) chain.Contract
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID() uint64
	Account() common.Address
}

// ABIResolver returns the callable interface of a contract.
type ABIResolver interface {
	Resolve(ctx context.Context, chainID uint64, address common.Address) (abi.ABI, error)
}

// Settings holds the rebalancing parameters taken from configuration.
type Settings struct {
	Router           common.Address
	GasPriceCeiling  *big.Int
	SettleDelay      time.Duration
	Deadline         time.Duration
	NativeIDSlippage uint64
	NativeDeltaID    int64
	AutoApprove      bool
}

// Keeper initializes positions and moves their liquidity to the active bin.
// It is not safe for concurrent use: every transaction comes from one
// account and nonces are assigned sequentially.
type Keeper struct {
	ledger   Ledger
	resolver ABIResolver
	settings Settings
	logger   *zap.Logger
	now      func() time.Time

	routerMu sync.Mutex
	router   chain.Contract
}

// New builds a Keeper.
func New(ledger Ledger, resolver ABIResolver, settings Settings, logger *zap.Logger) *Keeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.GasPriceCeiling == nil {
		settings.GasPriceCeiling = big.NewInt(15_000_000)
	}
	if settings.Deadline <= 0 {
		settings.Deadline = 24 * time.Hour
	}
	return &Keeper{
		ledger:   ledger,
		resolver: resolver,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckChanged reports whether the pool's active bin moved away from the position.
func (k *Keeper) CheckChanged(ctx context.Context, p *Position) (bool, error) {
	return p.CheckChanged(ctx)
}

// routerContract binds the router on first success. Failures are not
// cached, so a transient explorer error only affects the current caller.
func (k *Keeper) routerContract(ctx context.Context) (chain.Contract, error) {
	k.routerMu.Lock()
	defer k.routerMu.Unlock()
	if k.router != nil {
		return k.router, nil
	}
	if k.settings.Router == (common.Address{}) {
		return nil, fmt.Errorf("router address is not configured")
	}
	parsed, err := k.resolveABI(ctx, k.settings.Router, lb.RouterABI)
	if err != nil {
		return nil, fmt.Errorf("resolve router abi: %w", err)
	}
	k.router = k.ledger.Bind(k.settings.Router, parsed)
	return k.router, nil
}

// resolveABI asks the resolver first and falls back to the bundled
// interface when the explorer has none.
func (k *Keeper) resolveABI(ctx context.Context, address common.Address, fallback func() (abi.ABI, error)) (abi.ABI, error) {
	if k.resolver != nil {
		parsed, err := k.resolver.Resolve(ctx, k.ledger.ChainID(), address)
		if err == nil {
			return parsed, nil
		}
		if !errors.Is(err, explorer.ErrABINotFound) || fallback == nil {
			return abi.ABI{}, err
		}
		k.logger.Warn("abi not found, using bundled interface", zap.String("address", address.Hex()), zap.Error(err))
	}
	if fallback == nil {
		return abi.ABI{}, fmt.Errorf("no abi for %s", address.Hex())
	}
	return fallback()
}

func (k *Keeper) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (k *Keeper) deadline() int64 {
	return k.now().Add(k.settings.Deadline).Unix()
}

func (k *Keeper) timestamp() string {
	return k.now().Format("2006-01-02 15:04:05")
}
