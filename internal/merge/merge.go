// Package merge left-joins every optional source onto the game results to
// produce one model-ready feature row per collected game. Games anchor the
// join: a missing lineup, umpire, or odds row leaves its columns empty, and
// no game is ever dropped for lack of context.
package merge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/dataset"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// Stores holds the inputs to a merge. Any optional store may be nil.
type Stores struct {
	Games    *dataset.GameStore
	Profiles *dataset.ProfileStore
	Lineups  *dataset.LineupStore
	Umpires  *dataset.UmpireStore
	Odds     *dataset.OddsStore
}

// Merger joins the collected datasets.
type Merger struct {
	stores Stores
	logger *zap.Logger
}

// New builds a merger over the given stores.
func New(stores Stores, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{stores: stores, logger: logger.Named("merge")}
}

// Summary reports join coverage for one merge.
type Summary struct {
	Rows       int
	WithLineup int
	WithUmpire int
	WithOdds   int
	// Dropped counts context records whose keys could not be normalized to
	// a canonical game key; they never attach to a row.
	Dropped int
	Elapsed time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("rows=%d lineups=%d umpires=%d odds=%d dropped=%d elapsed=%s",
		s.Rows, s.WithLineup, s.WithUmpire, s.WithOdds, s.Dropped, s.Elapsed.Round(time.Millisecond))
}

// Merge loads every store and produces one row per game, sorted the way the
// game store sorts (date, then gamePk).
func (m *Merger) Merge(ctx context.Context) ([]pipeline.MergedFeatureRow, Summary, error) {
	start := time.Now()
	var sum Summary

	games, err := m.stores.Games.Load(ctx)
	if err != nil {
		return nil, sum, fmt.Errorf("load games: %w", err)
	}

	lineups, dropped, err := m.loadLineups(ctx)
	if err != nil {
		return nil, sum, err
	}
	sum.Dropped += dropped

	umps, droppedU, err := m.loadUmpires(ctx)
	if err != nil {
		return nil, sum, err
	}
	sum.Dropped += droppedU

	odds, droppedO, err := m.loadOdds(ctx)
	if err != nil {
		return nil, sum, err
	}
	sum.Dropped += droppedO

	profiles, err := m.loadProfiles(ctx)
	if err != nil {
		return nil, sum, err
	}

	rows := make([]pipeline.MergedFeatureRow, 0, len(games))
	for _, g := range games {
		row := pipeline.MergedFeatureRow{Game: g}
		key := g.Key()

		if l, ok := lineups[key]; ok {
			lc := l
			row.Lineup = &lc
			sum.WithLineup++
		}
		if u, ok := umps[key]; ok {
			uc := u
			row.Umpire = &uc
			sum.WithUmpire++
		}
		if o, ok := odds[key]; ok {
			oc := o
			row.Odds = &oc
			sum.WithOdds++
		}
		season := seasonOf(g.Date)
		row.HomePitcherProfile = profiles.lookup(g.HomePitcher, season)
		row.AwayPitcherProfile = profiles.lookup(g.AwayPitcher, season)

		rows = append(rows, row)
	}
	sum.Rows = len(rows)
	sum.Elapsed = time.Since(start)
	m.logger.Info("merge complete",
		zap.Int("rows", sum.Rows),
		zap.Int("with_lineup", sum.WithLineup),
		zap.Int("with_umpire", sum.WithUmpire),
		zap.Int("with_odds", sum.WithOdds),
		zap.Int("dropped_context", sum.Dropped))
	return rows, sum, nil
}

// Run merges and writes the feature CSV to outPath.
func (m *Merger) Run(ctx context.Context, outPath string) (Summary, error) {
	rows, sum, err := m.Merge(ctx)
	if err != nil {
		return sum, err
	}
	if err := dataset.WriteMerged(outPath, rows); err != nil {
		return sum, err
	}
	return sum, nil
}

func (m *Merger) loadLineups(ctx context.Context) (map[pipeline.GameKey]pipeline.LineupRecord, int, error) {
	if m.stores.Lineups == nil {
		return nil, 0, nil
	}
	raw, err := m.stores.Lineups.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load lineups: %w", err)
	}
	out := make(map[pipeline.GameKey]pipeline.LineupRecord, len(raw))
	dropped := 0
	for k, v := range raw {
		nk, err := normalizeKey(k)
		if err != nil {
			dropped++
			m.logger.Warn("dropping lineup with unresolvable key", zap.String("key", string(k)), zap.Error(err))
			continue
		}
		v.Key = nk
		out[nk] = v
	}
	return out, dropped, nil
}

func (m *Merger) loadUmpires(ctx context.Context) (map[pipeline.GameKey]pipeline.UmpireRecord, int, error) {
	if m.stores.Umpires == nil {
		return nil, 0, nil
	}
	raw, err := m.stores.Umpires.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load umpires: %w", err)
	}
	out := make(map[pipeline.GameKey]pipeline.UmpireRecord, len(raw))
	dropped := 0
	for k, v := range raw {
		nk, err := normalizeKey(k)
		if err != nil {
			dropped++
			m.logger.Warn("dropping umpire row with unresolvable key", zap.String("key", string(k)), zap.Error(err))
			continue
		}
		v.Key = nk
		out[nk] = v
	}
	return out, dropped, nil
}

func (m *Merger) loadOdds(ctx context.Context) (map[pipeline.GameKey]pipeline.OddsRecord, int, error) {
	if m.stores.Odds == nil {
		return nil, 0, nil
	}
	raw, err := m.stores.Odds.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load odds: %w", err)
	}
	out := make(map[pipeline.GameKey]pipeline.OddsRecord, len(raw))
	dropped := 0
	for k, v := range raw {
		nk, err := normalizeKey(k)
		if err != nil {
			dropped++
			m.logger.Warn("dropping odds row with unresolvable key", zap.String("key", string(k)), zap.Error(err))
			continue
		}
		v.Key = nk
		out[nk] = v
	}
	return out, dropped, nil
}

// profileIndex looks up profiles by pitcher name and season.
type profileIndex map[string]pipeline.PitchProfileRecord

func (idx profileIndex) lookup(name string, season int) *pipeline.PitchProfileRecord {
	if name == "" {
		return nil
	}
	if p, ok := idx[profileIndexKey(name, season)]; ok {
		pc := p
		return &pc
	}
	return nil
}

func profileIndexKey(name string, season int) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strconv.Itoa(season)
}

func (m *Merger) loadProfiles(ctx context.Context) (profileIndex, error) {
	if m.stores.Profiles == nil {
		return nil, nil
	}
	raw, err := m.stores.Profiles.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	idx := make(profileIndex, len(raw))
	for _, p := range raw {
		if p.Role != pipeline.RolePitcher {
			continue
		}
		idx[profileIndexKey(p.PlayerName, p.Season)] = p
	}
	return idx, nil
}

// normalizeKey re-resolves the team parts of a stored game key so that rows
// written with variant spellings still join. An unresolvable team is an
// unknown-entity failure for that row.
func normalizeKey(key pipeline.GameKey) (pipeline.GameKey, error) {
	parts := strings.Split(string(key), "_")
	if len(parts) != 3 {
		return "", &pipeline.UnknownEntityError{Kind: "game key", Name: string(key)}
	}
	home, err := teams.Resolve(parts[1])
	if err != nil {
		return "", err
	}
	away, err := teams.Resolve(parts[2])
	if err != nil {
		return "", err
	}
	return pipeline.MakeGameKey(parts[0], home, away), nil
}

func seasonOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
