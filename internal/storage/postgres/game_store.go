// Package postgres mirrors collected records into Postgres for users who
// query the dataset with SQL. The CSV files stay the source of truth; the
// mirror is optional and enabled by configuring a DSN.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// GameStoreConfig controls the Postgres connection pool used for game rows.
type GameStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// GameStore upserts game rows into Postgres, keyed by gamePk. It implements
// pipeline.GameSink.
type GameStore struct {
	pool  execCloser
	table string
}

// NewGameStore creates a Postgres-backed GameStore using the provided config.
func NewGameStore(ctx context.Context, cfg GameStoreConfig) (*GameStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "games"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &GameStore{pool: pool, table: table}, nil
}

// NewGameStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewGameStoreWithPool(pool execCloser, table string) (*GameStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "games"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &GameStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *GameStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// UpsertGames writes a batch with ON CONFLICT upsert semantics. Re-running a
// slate rewrites the same rows.
//
// Expected schema:
//
//	CREATE TABLE games (
//		game_pk BIGINT PRIMARY KEY,
//		game_date DATE NOT NULL,
//		home_team TEXT NOT NULL,
//		away_team TEXT NOT NULL,
//		venue TEXT,
//		home_pitcher TEXT,
//		away_pitcher TEXT,
//		temperature DOUBLE PRECISION,
//		wind_speed DOUBLE PRECISION,
//		wind_direction TEXT,
//		condition TEXT,
//		first_inning_runs_home INT NOT NULL,
//		first_inning_runs_away INT NOT NULL,
//		first_inning_run_scored BOOLEAN NOT NULL,
//		final_score_home INT,
//		final_score_away INT,
//		updated_at TIMESTAMPTZ DEFAULT NOW()
//	);
func (s *GameStore) UpsertGames(ctx context.Context, recs []pipeline.GameRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("game store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	game_pk, game_date, home_team, away_team, venue,
	home_pitcher, away_pitcher,
	temperature, wind_speed, wind_direction, condition,
	first_inning_runs_home, first_inning_runs_away, first_inning_run_scored,
	final_score_home, final_score_away, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
ON CONFLICT (game_pk) DO UPDATE SET
	game_date = EXCLUDED.game_date,
	home_team = EXCLUDED.home_team,
	away_team = EXCLUDED.away_team,
	venue = EXCLUDED.venue,
	home_pitcher = EXCLUDED.home_pitcher,
	away_pitcher = EXCLUDED.away_pitcher,
	temperature = EXCLUDED.temperature,
	wind_speed = EXCLUDED.wind_speed,
	wind_direction = EXCLUDED.wind_direction,
	condition = EXCLUDED.condition,
	first_inning_runs_home = EXCLUDED.first_inning_runs_home,
	first_inning_runs_away = EXCLUDED.first_inning_runs_away,
	first_inning_run_scored = EXCLUDED.first_inning_run_scored,
	final_score_home = EXCLUDED.final_score_home,
	final_score_away = EXCLUDED.final_score_away,
	updated_at = NOW()`, s.table)

	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, query,
			r.GamePk, r.Date, r.HomeTeam, r.AwayTeam, r.Venue,
			r.HomePitcher, r.AwayPitcher,
			r.Temperature, r.WindSpeed, r.WindDirection, r.Condition,
			r.HomeRunsInning1, r.AwayRunsInning1, r.FirstInningScored,
			r.FinalScoreHome, r.FinalScoreAway,
		); err != nil {
			return &pipeline.PersistenceError{Path: s.table, Err: err}
		}
	}
	return nil
}
