package model

// TokenSide selects one side of a bin pool pair.
type TokenSide int

const (
	SideX TokenSide = 0
	SideY TokenSide = 1
)

// PositionRecord is the persisted form of a tracked pool position.
type PositionRecord struct {
	PoolAddress    string         `json:"pool_address"`
	ProxyAddress   string         `json:"proxy_address,omitempty"`
	ChainID        uint64         `json:"chain_id"`
	CurrentBinID   uint32         `json:"current_bin_id"`
	NativeMode     bool           `json:"native_mode"`
	MonitorOnly    bool           `json:"monitor_only"`
	InitialDeposit InitialDeposit `json:"initial_deposit"`
	Stranded       *StrandedFunds `json:"stranded,omitempty"`
}

// InitialDeposit seeds an unfunded position on first initialization.
// Amount is a base-unit integer encoded as a decimal string.
type InitialDeposit struct {
	Side   TokenSide `json:"side"`
	Amount string    `json:"amount"`
}

// StrandedFunds records liquidity that was withdrawn but not redeposited.
type StrandedFunds struct {
	BinID   uint32 `json:"bin_id"`
	AmountX string `json:"amount_x"`
	AmountY string `json:"amount_y"`
	At      string `json:"at"`
}
