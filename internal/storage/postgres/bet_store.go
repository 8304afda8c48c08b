package postgres

import (
	"context"
	"fmt"

	"github.com/diamondsights/yrfi-pipeline/internal/bets"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// BetStore mirrors the bet ledger into Postgres. It implements bets.Sink.
type BetStore struct {
	pool  execCloser
	table string
}

// NewBetStoreFrom shares the game mirror's connection pool. Closing the
// GameStore closes this store too.
func NewBetStoreFrom(g *GameStore, table string) (*BetStore, error) {
	if g == nil {
		return nil, fmt.Errorf("game store is required")
	}
	return NewBetStoreWithPool(g.pool, table)
}

// NewBetStoreWithPool constructs a store over an existing pool.
func NewBetStoreWithPool(pool execCloser, table string) (*BetStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "bets"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &BetStore{pool: pool, table: table}, nil
}

// UpsertBets writes the given ledger rows, keyed by bet id.
//
// Expected schema:
//
//	CREATE TABLE bets (
//		id UUID PRIMARY KEY,
//		placed_at TIMESTAMPTZ NOT NULL,
//		game_key TEXT NOT NULL,
//		side TEXT NOT NULL,
//		odds INT NOT NULL,
//		stake DOUBLE PRECISION NOT NULL,
//		model_prob DOUBLE PRECISION,
//		result TEXT NOT NULL,
//		profit_loss DOUBLE PRECISION NOT NULL,
//		updated_at TIMESTAMPTZ DEFAULT NOW()
//	);
func (s *BetStore) UpsertBets(ctx context.Context, all []bets.Bet) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("bet store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id, placed_at, game_key, side, odds, stake, model_prob, result, profit_loss, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (id) DO UPDATE SET
	result = EXCLUDED.result,
	profit_loss = EXCLUDED.profit_loss,
	updated_at = NOW()`, s.table)

	for _, b := range all {
		if b.ID == "" {
			return fmt.Errorf("bet is missing an id")
		}
		if _, err := s.pool.Exec(ctx, query,
			b.ID, b.PlacedAt, string(b.GameKey), string(b.Side),
			b.Odds, b.Stake, b.ModelProb, string(b.Result), b.ProfitLoss,
		); err != nil {
			return &pipeline.PersistenceError{Path: s.table, Err: err}
		}
	}
	return nil
}
