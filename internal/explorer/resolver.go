package explorer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Resolver returns contract interfaces, consulting the cache before the
// explorer. A nil client makes the resolver cache-only.
type Resolver struct {
	client *Client
	cache  *Cache
	logger *zap.Logger
}

func NewResolver(client *Client, cache *Cache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{client: client, cache: cache, logger: logger}
}

// Resolve returns the parsed interface for address on chainID.
func (r *Resolver) Resolve(ctx context.Context, chainID uint64, address common.Address) (abi.ABI, error) {
	raw, ok := r.cache.Get(address.Hex())
	if !ok {
		if r.client == nil {
			return abi.ABI{}, fmt.Errorf("%w: %s (no explorer api key)", ErrABINotFound, address.Hex())
		}

		fetched, err := r.client.GetABI(ctx, chainID, address)
		if err != nil {
			return abi.ABI{}, err
		}
		raw = fetched
		r.cache.Set(address.Hex(), raw)
		r.logger.Info("abi resolved", zap.String("address", address.Hex()), zap.Uint64("chain_id", chainID))
	}

	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi %s: %w", address.Hex(), err)
	}
	return parsed, nil
}
