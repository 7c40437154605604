package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Ledger binds contracts for one signing account on one network.
type Ledger struct {
	backend Backend
	tx      *Transactor
	chainID uint64
}

// NewLedger reads the network chain id and prepares the signing account.
func NewLedger(ctx context.Context, backend Backend, accountKey string, opts ...Option) (*Ledger, error) {
	chainID, err := backend.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	tx, err := NewTransactor(backend, chainID, accountKey, opts...)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		backend: backend,
		tx:      tx,
		chainID: chainID.Uint64(),
	}, nil
}

// Bind returns a Contract for address using the parsed interface.
func (l *Ledger) Bind(address common.Address, parsed abi.ABI) Contract {
	return &BoundContract{
		address: address,
		abi:     parsed,
		backend: l.backend,
		tx:      l.tx,
	}
}

// SuggestGasPrice returns the current network gas price.
func (l *Ledger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return l.backend.SuggestGasPrice(ctx)
}

// ChainID returns the network chain id.
func (l *Ledger) ChainID() uint64 {
	return l.chainID
}

// Account returns the signing account address.
func (l *Ledger) Account() common.Address {
	return l.tx.From()
}
