package model

// RebalanceEvent is one rebalance attempt written to the event log.
type RebalanceEvent struct {
	ChainID     uint64 `json:"chain_id"`
	PoolAddress string `json:"pool_address"`
	Pair        string `json:"pair"`
	Status      string `json:"status"`
	Success     bool   `json:"success"`
	PrevBinID   uint32 `json:"prev_bin_id"`
	NewBinID    uint32 `json:"new_bin_id"`
	AmountX     string `json:"amount_x,omitempty"`
	AmountY     string `json:"amount_y,omitempty"`
	GasPrice    string `json:"gas_price,omitempty"`
	Information string `json:"information,omitempty"`
	Timestamp   string `json:"timestamp"`
}
