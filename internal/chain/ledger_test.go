package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"liquidityKeeper/internal/lb"
)

type fakeBackend struct {
	callResp     []byte
	lastCall     ethereum.CallMsg
	sent         []*types.Transaction
	receiptMiss  int
	receiptCalls int
	receipt      *types.Receipt
}

func (f *fakeBackend) GetChainID(context.Context) (*big.Int, error) { return big.NewInt(42161), nil }
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(10_000_000), nil
}
func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}
func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}
func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}
func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	f.receiptCalls++
	if f.receiptCalls <= f.receiptMiss || f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}
func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = msg
	return f.callResp, nil
}

func testKey(t *testing.T) string {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return hexutil.Encode(crypto.FromECDSA(key))
}

func TestLedgerCallUnpacksOutputs(t *testing.T) {
	pairABI, err := lb.PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	resp, err := pairABI.Methods["getActiveId"].Outputs.Pack(big.NewInt(8388608))
	if err != nil {
		t.Fatalf("pack output: %v", err)
	}

	backend := &fakeBackend{callResp: resp}
	ledger, err := NewLedger(context.Background(), backend, testKey(t))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	if ledger.ChainID() != 42161 {
		t.Fatalf("chain id mismatch: %d", ledger.ChainID())
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	values, err := ledger.Bind(pool, pairABI).Call(context.Background(), "getActiveId")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	got, ok := values[0].(*big.Int)
	if !ok || got.Int64() != 8388608 {
		t.Fatalf("active id mismatch: %v", values[0])
	}
	if backend.lastCall.To == nil || *backend.lastCall.To != pool {
		t.Fatalf("call target mismatch")
	}
	if backend.lastCall.From != ledger.Account() {
		t.Fatalf("call sender mismatch")
	}
}

func TestTransactWaitsForReceipt(t *testing.T) {
	pairABI, err := lb.PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	backend := &fakeBackend{
		receiptMiss: 2,
		receipt:     &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
	ledger, err := NewLedger(context.Background(), backend, testKey(t), WithReceiptPoll(time.Millisecond), WithReceiptTimeout(time.Second))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	receipt, err := ledger.Bind(common.HexToAddress("0x1111111111111111111111111111111111111111"), pairABI).
		Transact(context.Background(), nil, "approveForAll", spender, true)
	if err != nil {
		t.Fatalf("transact: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Fatalf("receipt status mismatch: %d", receipt.Status)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one transaction, got %d", len(backend.sent))
	}
	tx := backend.sent[0]
	if tx.Nonce() != 7 {
		t.Fatalf("nonce mismatch: %d", tx.Nonce())
	}
	if tx.Gas() != 120_000 {
		t.Fatalf("gas limit mismatch: %d", tx.Gas())
	}
	if tx.Value().Sign() != 0 {
		t.Fatalf("value should be zero")
	}
	if backend.receiptCalls != 3 {
		t.Fatalf("receipt calls mismatch: %d", backend.receiptCalls)
	}
}

func TestTransactReceiptTimeout(t *testing.T) {
	pairABI, err := lb.PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	backend := &fakeBackend{}
	ledger, err := NewLedger(context.Background(), backend, testKey(t), WithReceiptPoll(time.Millisecond), WithReceiptTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	_, err = ledger.Bind(common.HexToAddress("0x1111111111111111111111111111111111111111"), pairABI).
		Transact(context.Background(), nil, "approveForAll", common.Address{}, true)
	if !errors.Is(err, ErrReceiptTimeout) {
		t.Fatalf("expected receipt timeout, got %v", err)
	}
}

func TestNewLedgerRejectsBadKey(t *testing.T) {
	if _, err := NewLedger(context.Background(), &fakeBackend{}, "not-a-key"); err == nil {
		t.Fatalf("expected error for invalid key")
	}
}
