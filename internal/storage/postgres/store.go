package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityKeeper/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS rebalance_events (
	id BIGSERIAL PRIMARY KEY,
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	pair TEXT NOT NULL,
	status TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	prev_bin_id BIGINT NOT NULL,
	new_bin_id BIGINT NOT NULL,
	amount_x TEXT,
	amount_y TEXT,
	gas_price TEXT,
	information TEXT,
	event_ts TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS positions (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	proxy_address TEXT,
	current_bin_id BIGINT NOT NULL,
	native_mode BOOLEAN NOT NULL,
	monitor_only BOOLEAN NOT NULL,
	stranded BOOLEAN NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, pool_address)
);
`

// Store provides Postgres persistence for rebalance events and position snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutEvents inserts rebalance events in one batch.
func (s *Store) PutEvents(ctx context.Context, events []model.RebalanceEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil {
			ts = time.Now().UTC()
		}
		batch.Queue(`
			INSERT INTO rebalance_events (
				chain_id, pool_address, pair, status, success, prev_bin_id, new_bin_id,
				amount_x, amount_y, gas_price, information, event_ts
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`,
			int64(ev.ChainID),
			ev.PoolAddress,
			ev.Pair,
			ev.Status,
			ev.Success,
			int64(ev.PrevBinID),
			int64(ev.NewBinID),
			ev.AmountX,
			ev.AmountY,
			ev.GasPrice,
			ev.Information,
			ts,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert rebalance event: %w", err)
		}
	}
	return nil
}

// SavePositions upserts a snapshot of every position.
func (s *Store) SavePositions(ctx context.Context, positions []model.PositionRecord) error {
	if len(positions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range positions {
		batch.Queue(`
			INSERT INTO positions (
				chain_id, pool_address, proxy_address, current_bin_id, native_mode, monitor_only, stranded, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				proxy_address = EXCLUDED.proxy_address,
				current_bin_id = EXCLUDED.current_bin_id,
				native_mode = EXCLUDED.native_mode,
				monitor_only = EXCLUDED.monitor_only,
				stranded = EXCLUDED.stranded,
				updated_at = now()
		`,
			int64(p.ChainID),
			p.PoolAddress,
			p.ProxyAddress,
			int64(p.CurrentBinID),
			p.NativeMode,
			p.MonitorOnly,
			p.Stranded != nil,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range positions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert position: %w", err)
		}
	}
	return nil
}
