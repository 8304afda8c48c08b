package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// The three context stores below hold the optional per-game sources, each
// keyed by the composite game key so the merger can join them onto results.

var lineupsHeader = []string{
	"game_key", "date", "home_team", "away_team",
	"home_confirmed", "away_confirmed", "home_pitcher", "away_pitcher",
	"home_batters_json", "away_batters_json",
}

// LineupStore keeps lineup cards, upserted by game key. A later confirmed
// card replaces the earlier projected one.
type LineupStore struct {
	Path string
}

// NewLineupStore points a store at a CSV path.
func NewLineupStore(path string) *LineupStore { return &LineupStore{Path: path} }

// Load reads the stored lineups keyed by game.
func (s *LineupStore) Load(ctx context.Context) (map[pipeline.GameKey]pipeline.LineupRecord, error) {
	rows, err := readRows(s.Path, lineupsHeader)
	if err != nil {
		return nil, err
	}
	out := make(map[pipeline.GameKey]pipeline.LineupRecord, len(rows))
	for _, row := range rows {
		rec, err := lineupFromRow(row)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		out[rec.Key] = rec
	}
	return out, nil
}

// Upsert merges a batch of lineup cards into the file.
func (s *LineupStore) Upsert(ctx context.Context, recs []pipeline.LineupRecord) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, r := range recs {
		existing[r.Key] = r
	}
	keys := sortedKeys(existing)
	rows := make([][]string, 0, len(existing))
	for _, k := range keys {
		row, err := lineupToRow(existing[k])
		if err != nil {
			return &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		rows = append(rows, row)
	}
	return writeAtomic(s.Path, lineupsHeader, rows)
}

func lineupToRow(r pipeline.LineupRecord) ([]string, error) {
	home, err := json.Marshal(r.HomeBatters)
	if err != nil {
		return nil, fmt.Errorf("encode lineup %s: %w", r.Key, err)
	}
	away, err := json.Marshal(r.AwayBatters)
	if err != nil {
		return nil, fmt.Errorf("encode lineup %s: %w", r.Key, err)
	}
	return []string{
		string(r.Key), r.Date, r.HomeTeam, r.AwayTeam,
		formatBool(r.HomeConfirmed), formatBool(r.AwayConfirmed),
		r.HomePitcher, r.AwayPitcher,
		string(home), string(away),
	}, nil
}

func lineupFromRow(row []string) (pipeline.LineupRecord, error) {
	rec := pipeline.LineupRecord{
		Key:           pipeline.GameKey(row[0]),
		Date:          row[1],
		HomeTeam:      row[2],
		AwayTeam:      row[3],
		HomeConfirmed: row[4] == "true",
		AwayConfirmed: row[5] == "true",
		HomePitcher:   row[6],
		AwayPitcher:   row[7],
	}
	if row[8] != "" {
		if err := json.Unmarshal([]byte(row[8]), &rec.HomeBatters); err != nil {
			return pipeline.LineupRecord{}, fmt.Errorf("decode lineup %s: %w", rec.Key, err)
		}
	}
	if row[9] != "" {
		if err := json.Unmarshal([]byte(row[9]), &rec.AwayBatters); err != nil {
			return pipeline.LineupRecord{}, fmt.Errorf("decode lineup %s: %w", rec.Key, err)
		}
	}
	return rec, nil
}

var umpiresHeader = []string{"game_key", "umpire", "zone_score", "run_impact", "tendency"}

// UmpireStore keeps umpire assignments, upserted by game key.
type UmpireStore struct {
	Path string
}

// NewUmpireStore points a store at a CSV path.
func NewUmpireStore(path string) *UmpireStore { return &UmpireStore{Path: path} }

// Load reads the stored assignments keyed by game.
func (s *UmpireStore) Load(ctx context.Context) (map[pipeline.GameKey]pipeline.UmpireRecord, error) {
	rows, err := readRows(s.Path, umpiresHeader)
	if err != nil {
		return nil, err
	}
	out := make(map[pipeline.GameKey]pipeline.UmpireRecord, len(rows))
	for _, row := range rows {
		zone, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: fmt.Errorf("bad zone_score %q: %w", row[2], err)}
		}
		impact, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: fmt.Errorf("bad run_impact %q: %w", row[3], err)}
		}
		rec := pipeline.UmpireRecord{
			Key:       pipeline.GameKey(row[0]),
			Name:      row[1],
			ZoneScore: zone,
			RunImpact: impact,
			Tendency:  row[4],
		}
		out[rec.Key] = rec
	}
	return out, nil
}

// Upsert merges a batch of assignments into the file.
func (s *UmpireStore) Upsert(ctx context.Context, recs []pipeline.UmpireRecord) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, r := range recs {
		existing[r.Key] = r
	}
	keys := sortedKeys(existing)
	rows := make([][]string, 0, len(existing))
	for _, k := range keys {
		r := existing[k]
		rows = append(rows, []string{
			string(r.Key), r.Name,
			strconv.FormatFloat(r.ZoneScore, 'f', -1, 64),
			strconv.FormatFloat(r.RunImpact, 'f', -1, 64),
			r.Tendency,
		})
	}
	return writeAtomic(s.Path, umpiresHeader, rows)
}

var oddsHeader = []string{
	"game_key", "yrfi_odds", "nrfi_odds", "yrfi_implied_prob", "nrfi_implied_prob",
	"opening_yrfi", "line_movement", "movement_cents",
}

// OddsStore keeps YRFI/NRFI prices, upserted by game key.
type OddsStore struct {
	Path string
}

// NewOddsStore points a store at a CSV path.
func NewOddsStore(path string) *OddsStore { return &OddsStore{Path: path} }

// Load reads the stored odds keyed by game.
func (s *OddsStore) Load(ctx context.Context) (map[pipeline.GameKey]pipeline.OddsRecord, error) {
	rows, err := readRows(s.Path, oddsHeader)
	if err != nil {
		return nil, err
	}
	out := make(map[pipeline.GameKey]pipeline.OddsRecord, len(rows))
	for _, row := range rows {
		rec, err := oddsFromRow(row)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		out[rec.Key] = rec
	}
	return out, nil
}

// Upsert merges a batch of odds snapshots into the file.
func (s *OddsStore) Upsert(ctx context.Context, recs []pipeline.OddsRecord) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, r := range recs {
		existing[r.Key] = r
	}
	keys := sortedKeys(existing)
	rows := make([][]string, 0, len(existing))
	for _, k := range keys {
		r := existing[k]
		rows = append(rows, []string{
			string(r.Key),
			strconv.Itoa(r.YRFIOdds),
			strconv.Itoa(r.NRFIOdds),
			strconv.FormatFloat(r.YRFIImplied, 'f', -1, 64),
			strconv.FormatFloat(r.NRFIImplied, 'f', -1, 64),
			formatOptInt(r.OpeningYRFI),
			r.Movement,
			strconv.Itoa(r.MovementCents),
		})
	}
	return writeAtomic(s.Path, oddsHeader, rows)
}

func oddsFromRow(row []string) (pipeline.OddsRecord, error) {
	yrfi, err := strconv.Atoi(row[1])
	if err != nil {
		return pipeline.OddsRecord{}, fmt.Errorf("bad yrfi_odds %q: %w", row[1], err)
	}
	nrfi, err := strconv.Atoi(row[2])
	if err != nil {
		return pipeline.OddsRecord{}, fmt.Errorf("bad nrfi_odds %q: %w", row[2], err)
	}
	yrfiImp, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return pipeline.OddsRecord{}, fmt.Errorf("bad yrfi_implied_prob %q: %w", row[3], err)
	}
	nrfiImp, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return pipeline.OddsRecord{}, fmt.Errorf("bad nrfi_implied_prob %q: %w", row[4], err)
	}
	cents, err := strconv.Atoi(row[7])
	if err != nil {
		return pipeline.OddsRecord{}, fmt.Errorf("bad movement_cents %q: %w", row[7], err)
	}
	return pipeline.OddsRecord{
		Key:           pipeline.GameKey(row[0]),
		YRFIOdds:      yrfi,
		NRFIOdds:      nrfi,
		YRFIImplied:   yrfiImp,
		NRFIImplied:   nrfiImp,
		OpeningYRFI:   parseOptInt(row[5]),
		Movement:      row[6],
		MovementCents: cents,
	}, nil
}

func sortedKeys[V any](m map[pipeline.GameKey]V) []pipeline.GameKey {
	keys := make([]pipeline.GameKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
