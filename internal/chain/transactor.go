package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// ErrReceiptTimeout is returned when a transaction is not mined in time.
var ErrReceiptTimeout = errors.New("transaction receipt timeout")

const gasLimitMarginPercent = 120

// Backend is the subset of the RPC client used to read and transact.
type Backend interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Transactor signs, submits and waits for transactions from one account.
type Transactor struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	receiptTimeout time.Duration
	receiptPoll    time.Duration
	logger         *zap.Logger
}

// Option configures a Transactor.
type Option func(*Transactor)

// WithReceiptTimeout sets the maximum time to wait for a receipt.
func WithReceiptTimeout(timeout time.Duration) Option {
	return func(t *Transactor) {
		if timeout > 0 {
			t.receiptTimeout = timeout
		}
	}
}

// WithReceiptPoll sets the receipt polling interval.
func WithReceiptPoll(interval time.Duration) Option {
	return func(t *Transactor) {
		if interval > 0 {
			t.receiptPoll = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transactor) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransactor builds a Transactor for the hex-encoded private key.
func NewTransactor(backend Backend, chainID *big.Int, accountKey string, opts ...Option) (*Transactor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(accountKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse account key: %w", err)
	}

	t := &Transactor{
		backend:        backend,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        new(big.Int).Set(chainID),
		receiptTimeout: 5 * time.Minute,
		receiptPoll:    2 * time.Second,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// From returns the signing account address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Send signs and submits a transaction, then waits for its receipt.
func (t *Transactor) Send(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	tipCap, err := t.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas tip: %w", err)
	}
	feeCap := new(big.Int).Mul(gasPrice, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	gas, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gas = gas * gasLimitMarginPercent / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   t.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	t.logger.Info("transaction sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
		zap.String("value", value.String()),
	)

	return t.waitMined(ctx, signed.Hash())
}

func (t *Transactor) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	op := func() (*types.Receipt, error) {
		receipt, err := t.backend.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return nil, err
			}
			return nil, backoff.Permanent(fmt.Errorf("receipt %s: %w", hash.Hex(), err))
		}
		return receipt, nil
	}

	receipt, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(t.receiptPoll)),
		backoff.WithMaxElapsedTime(t.receiptTimeout),
	)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: %s not mined within %v", ErrReceiptTimeout, hash.Hex(), t.receiptTimeout)
		}
		return nil, err
	}

	t.logger.Info("transaction mined",
		zap.String("tx", hash.Hex()),
		zap.Uint64("status", receipt.Status),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt, nil
}
