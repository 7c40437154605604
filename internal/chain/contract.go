package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract invokes methods by name on a contract whose interface was
// resolved at runtime.
type Contract interface {
	Address() common.Address
	Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
	Transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Receipt, error)
}

// BoundContract is a Contract backed by an RPC backend and a Transactor.
type BoundContract struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	tx      *Transactor
}

// Address returns the contract address.
func (c *BoundContract) Address() common.Address {
	return c.address
}

// Call performs a read-only call and returns the unpacked outputs.
func (c *BoundContract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &c.address, Data: data}
	if c.tx != nil {
		msg.From = c.tx.From()
	}
	resp, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := c.abi.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// Transact submits a state-changing call and waits for the receipt.
func (c *BoundContract) Transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Receipt, error) {
	if c.tx == nil {
		return nil, fmt.Errorf("transact %s: no signing account", method)
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	receipt, err := c.tx.Send(ctx, c.address, value, data)
	if err != nil {
		return nil, fmt.Errorf("transact %s: %w", method, err)
	}
	return receipt, nil
}
