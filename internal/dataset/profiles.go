package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

var profilesHeader = []string{
	"player_id", "player_name", "role", "season", "arsenal_json",
	"fi_era", "fi_whip", "fi_avg_against", "fi_ops",
	"rest_era", "rest_whip", "rest_avg_against", "rest_ops",
}

// ProfileStore keeps pitch profiles in one CSV, upserted by
// (player id, season). The arsenal rides along as a JSON column since its
// length varies per player.
type ProfileStore struct {
	Path string
}

// NewProfileStore points a store at a CSV path.
func NewProfileStore(path string) *ProfileStore { return &ProfileStore{Path: path} }

// Load reads every stored profile keyed for lookup.
func (s *ProfileStore) Load(ctx context.Context) (map[pipeline.ProfileKey]pipeline.PitchProfileRecord, error) {
	rows, err := readRows(s.Path, profilesHeader)
	if err != nil {
		return nil, err
	}
	out := make(map[pipeline.ProfileKey]pipeline.PitchProfileRecord, len(rows))
	for _, row := range rows {
		rec, err := profileFromRow(row)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		out[rec.Key()] = rec
	}
	return out, nil
}

// Upsert merges a batch of profiles; a re-scrape replaces the stored row.
func (s *ProfileStore) Upsert(ctx context.Context, recs []pipeline.PitchProfileRecord) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for _, r := range recs {
		existing[r.Key()] = r
	}

	merged := make([]pipeline.PitchProfileRecord, 0, len(existing))
	for _, r := range existing {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].PlayerID != merged[j].PlayerID {
			return merged[i].PlayerID < merged[j].PlayerID
		}
		return merged[i].Season < merged[j].Season
	})

	rows := make([][]string, 0, len(merged))
	for _, r := range merged {
		row, err := profileToRow(r)
		if err != nil {
			return &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		rows = append(rows, row)
	}
	return writeAtomic(s.Path, profilesHeader, rows)
}

func profileToRow(r pipeline.PitchProfileRecord) ([]string, error) {
	arsenal, err := json.Marshal(r.Arsenal)
	if err != nil {
		return nil, fmt.Errorf("encode arsenal for player %d: %w", r.PlayerID, err)
	}
	return []string{
		strconv.FormatInt(r.PlayerID, 10),
		r.PlayerName,
		string(r.Role),
		strconv.Itoa(r.Season),
		string(arsenal),
		formatOptFloat(r.FirstInning.ERA),
		formatOptFloat(r.FirstInning.WHIP),
		formatOptFloat(r.FirstInning.AvgAgainst),
		formatOptFloat(r.FirstInning.OPS),
		formatOptFloat(r.Remainder.ERA),
		formatOptFloat(r.Remainder.WHIP),
		formatOptFloat(r.Remainder.AvgAgainst),
		formatOptFloat(r.Remainder.OPS),
	}, nil
}

func profileFromRow(row []string) (pipeline.PitchProfileRecord, error) {
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return pipeline.PitchProfileRecord{}, fmt.Errorf("bad player_id %q: %w", row[0], err)
	}
	season, err := strconv.Atoi(row[3])
	if err != nil {
		return pipeline.PitchProfileRecord{}, fmt.Errorf("bad season %q: %w", row[3], err)
	}
	rec := pipeline.PitchProfileRecord{
		PlayerID:   id,
		PlayerName: row[1],
		Role:       pipeline.PlayerRole(row[2]),
		Season:     season,
		FirstInning: pipeline.InningLine{
			ERA: parseOptFloat(row[5]), WHIP: parseOptFloat(row[6]),
			AvgAgainst: parseOptFloat(row[7]), OPS: parseOptFloat(row[8]),
		},
		Remainder: pipeline.InningLine{
			ERA: parseOptFloat(row[9]), WHIP: parseOptFloat(row[10]),
			AvgAgainst: parseOptFloat(row[11]), OPS: parseOptFloat(row[12]),
		},
	}
	if row[4] != "" {
		if err := json.Unmarshal([]byte(row[4]), &rec.Arsenal); err != nil {
			return pipeline.PitchProfileRecord{}, fmt.Errorf("decode arsenal for player %d: %w", id, err)
		}
	}
	return rec, nil
}
