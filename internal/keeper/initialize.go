package keeper

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.uber.org/zap"

	"liquidityKeeper/internal/chain"
	"liquidityKeeper/internal/lb"
	"liquidityKeeper/internal/model"
)

const (
	methodSymbol    = "symbol"
	methodDecimals  = "decimals"
	methodAllowance = "allowance"
	methodApprove   = "approve"
)

// Initialize binds the pool, resolves token metadata and, for an unfunded
// position, records or funds the active bin. It is a no-op for a position
// that is already initialized. On error the position stays uninitialized.
func (k *Keeper) Initialize(ctx context.Context, p *Position) error {
	if p.Initialized() {
		return nil
	}
	if p.chainID != 0 && p.chainID != k.ledger.ChainID() {
		return fmt.Errorf("position chain %d does not match rpc chain %d", p.chainID, k.ledger.ChainID())
	}

	parsed, err := k.resolveABI(ctx, p.proxy, lb.PairABI)
	if err != nil {
		return fmt.Errorf("resolve pool abi: %w", err)
	}
	pair := k.ledger.Bind(p.pool, parsed)

	tokenX, err := k.pairToken(ctx, pair, methodGetTokenX)
	if err != nil {
		return err
	}
	tokenY, err := k.pairToken(ctx, pair, methodGetTokenY)
	if err != nil {
		return err
	}

	// Work on a bound copy so a failure below leaves p untouched.
	staged := *p
	staged.pair = pair
	staged.tokenX = tokenX
	staged.tokenY = tokenY

	if !staged.monitorOnly && k.settings.AutoApprove {
		if err := k.ensureApprovals(ctx, &staged); err != nil {
			return fmt.Errorf("approve router: %w", err)
		}
	}

	if staged.currentBinID == 0 {
		active, err := staged.activeID(ctx)
		if err != nil {
			return fmt.Errorf("read active bin: %w", err)
		}
		target := active
		if !staged.monitorOnly && staged.depositAmount.Sign() > 0 {
			amountX, amountY := big.NewInt(0), big.NewInt(0)
			if staged.depositSide == model.SideX {
				amountX = new(big.Int).Set(staged.depositAmount)
			} else {
				amountY = new(big.Int).Set(staged.depositAmount)
			}
			target, err = k.deposit(context.WithoutCancel(ctx), &staged, amountX, amountY, active)
			if err != nil {
				return fmt.Errorf("initial deposit: %w", err)
			}
		}
		staged.currentBinID = target
	}

	*p = staged
	k.logger.Info("position initialized",
		zap.String("position", p.Name()),
		zap.String("pool", p.pool.Hex()),
		zap.Uint32("bin_id", p.currentBinID),
		zap.Bool("monitor_only", p.monitorOnly),
		zap.Bool("native", p.native),
	)
	return nil
}

func (k *Keeper) pairToken(ctx context.Context, pair chain.Contract, method string) (model.Token, error) {
	values, err := pair.Call(ctx, method)
	if err != nil {
		return model.Token{}, err
	}
	v, err := single(values, method)
	if err != nil {
		return model.Token{}, err
	}
	address, err := asAddress(v)
	if err != nil {
		return model.Token{}, fmt.Errorf("decode %s: %w", method, err)
	}
	token, err := k.tokenMeta(ctx, address)
	if err != nil {
		return model.Token{}, fmt.Errorf("token %s: %w", address.Hex(), err)
	}
	return token, nil
}

// tokenMeta reads symbol and decimals. Tokens that return the symbol as
// bytes32 are retried with that encoding.
func (k *Keeper) tokenMeta(ctx context.Context, address common.Address) (model.Token, error) {
	meta := model.Token{Address: address.Hex()}

	stringABI, err := lb.ERC20ABI()
	if err != nil {
		return meta, err
	}
	token := k.ledger.Bind(address, stringABI)

	values, err := token.Call(ctx, methodSymbol)
	if err == nil && len(values) > 0 {
		if s, ok := values[0].(string); ok {
			meta.Symbol = s
		}
	}
	if meta.Symbol == "" {
		bytesABI, abiErr := lb.ERC20Bytes32ABI()
		if abiErr != nil {
			return meta, abiErr
		}
		values, err = k.ledger.Bind(address, bytesABI).Call(ctx, methodSymbol)
		if err != nil {
			return meta, fmt.Errorf("read symbol: %w", err)
		}
		if len(values) > 0 {
			if s, ok := bytes32ToString(values[0]); ok {
				meta.Symbol = s
			}
		}
	}

	values, err = token.Call(ctx, methodDecimals)
	if err != nil {
		return meta, fmt.Errorf("read decimals: %w", err)
	}
	v, err := single(values, methodDecimals)
	if err != nil {
		return meta, err
	}
	meta.Decimals, err = asUint8(v)
	if err != nil {
		return meta, fmt.Errorf("decode decimals: %w", err)
	}
	return meta, nil
}

// ensureApprovals lets the router move pool shares and, for every side paid
// as a token, the account's tokens.
func (k *Keeper) ensureApprovals(ctx context.Context, p *Position) error {
	router, err := k.routerContract(ctx)
	if err != nil {
		return err
	}
	account := k.ledger.Account()
	spender := router.Address()

	values, err := p.pair.Call(ctx, methodIsApprovedForAll, account, spender)
	if err != nil {
		return err
	}
	v, err := single(values, methodIsApprovedForAll)
	if err != nil {
		return err
	}
	approved, err := asBool(v)
	if err != nil {
		return fmt.Errorf("decode %s: %w", methodIsApprovedForAll, err)
	}
	if !approved {
		if err := k.transact(ctx, p.pair, nil, methodApproveForAll, spender, true); err != nil {
			return err
		}
	}

	tokens := []model.Token{p.tokenX}
	if !p.native {
		tokens = append(tokens, p.tokenY)
	}
	erc20, err := lb.ERC20ABI()
	if err != nil {
		return err
	}
	half := new(big.Int).Rsh(math.MaxBig256, 1)
	for _, t := range tokens {
		token := k.ledger.Bind(common.HexToAddress(t.Address), erc20)
		allowance, err := bigResult(token.Call(ctx, methodAllowance, account, spender))
		if err != nil {
			return fmt.Errorf("read %s allowance: %w", t.Symbol, err)
		}
		if allowance.Cmp(half) >= 0 {
			continue
		}
		if err := k.transact(ctx, token, nil, methodApprove, spender, new(big.Int).Set(math.MaxBig256)); err != nil {
			return fmt.Errorf("approve %s: %w", t.Symbol, err)
		}
	}
	return nil
}

// transact submits a call and treats a reverted receipt as an error.
func (k *Keeper) transact(ctx context.Context, c chain.Contract, value *big.Int, method string, args ...interface{}) error {
	receipt, err := c.Transact(ctx, value, method, args...)
	if err != nil {
		return err
	}
	if receipt == nil || receipt.Status != 1 {
		return fmt.Errorf("%s reverted", method)
	}
	k.logger.Info("transaction confirmed", zap.String("method", method), zap.String("tx", receipt.TxHash.Hex()))
	return nil
}

func bigResult(values []interface{}, err error) (*big.Int, error) {
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no values returned")
	}
	return asBigInt(values[0])
}
