package dataset

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// gamesHeader is the stable column order of the game-results file. New
// columns go at the end; existing positions never change.
var gamesHeader = []string{
	"game_pk", "date", "home_team", "away_team", "venue",
	"home_pitcher", "away_pitcher",
	"temperature", "wind_speed", "wind_direction", "condition",
	"first_inning_runs_home", "first_inning_runs_away", "first_inning_run_scored",
	"final_score_home", "final_score_away",
}

// GameStore keeps game results in one CSV, upserted by gamePk. It implements
// pipeline.GameSink.
type GameStore struct {
	Path string
}

// NewGameStore points a store at a CSV path.
func NewGameStore(path string) *GameStore { return &GameStore{Path: path} }

// Load reads every stored game, sorted by date then gamePk.
func (s *GameStore) Load(ctx context.Context) ([]pipeline.GameRecord, error) {
	rows, err := readRows(s.Path, gamesHeader)
	if err != nil {
		return nil, err
	}
	recs := make([]pipeline.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := gameFromRow(row)
		if err != nil {
			return nil, &pipeline.PersistenceError{Path: s.Path, Err: err}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UpsertGames merges a batch into the file. Re-collected games replace their
// previous row, so a re-run of the same slate changes nothing.
func (s *GameStore) UpsertGames(ctx context.Context, recs []pipeline.GameRecord) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	byPk := make(map[int64]pipeline.GameRecord, len(existing)+len(recs))
	for _, r := range existing {
		byPk[r.GamePk] = r
	}
	for _, r := range recs {
		byPk[r.GamePk] = r
	}

	merged := make([]pipeline.GameRecord, 0, len(byPk))
	for _, r := range byPk {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].GamePk < merged[j].GamePk
	})

	rows := make([][]string, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, gameToRow(r))
	}
	return writeAtomic(s.Path, gamesHeader, rows)
}

func gameToRow(r pipeline.GameRecord) []string {
	return []string{
		strconv.FormatInt(r.GamePk, 10),
		r.Date,
		r.HomeTeam,
		r.AwayTeam,
		r.Venue,
		r.HomePitcher,
		r.AwayPitcher,
		formatOptFloat(r.Temperature),
		formatOptFloat(r.WindSpeed),
		r.WindDirection,
		r.Condition,
		strconv.Itoa(r.HomeRunsInning1),
		strconv.Itoa(r.AwayRunsInning1),
		formatBool(r.FirstInningScored),
		formatOptInt(r.FinalScoreHome),
		formatOptInt(r.FinalScoreAway),
	}
}

func gameFromRow(row []string) (pipeline.GameRecord, error) {
	pk, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return pipeline.GameRecord{}, fmt.Errorf("bad game_pk %q: %w", row[0], err)
	}
	homeRuns, err := strconv.Atoi(row[11])
	if err != nil {
		return pipeline.GameRecord{}, fmt.Errorf("bad first_inning_runs_home %q: %w", row[11], err)
	}
	awayRuns, err := strconv.Atoi(row[12])
	if err != nil {
		return pipeline.GameRecord{}, fmt.Errorf("bad first_inning_runs_away %q: %w", row[12], err)
	}

	rec := pipeline.GameRecord{
		GamePk:          pk,
		Date:            row[1],
		HomeTeam:        row[2],
		AwayTeam:        row[3],
		Venue:           row[4],
		HomePitcher:     row[5],
		AwayPitcher:     row[6],
		Temperature:     parseOptFloat(row[7]),
		WindSpeed:       parseOptFloat(row[8]),
		WindDirection:   row[9],
		Condition:       row[10],
		HomeRunsInning1: homeRuns,
		AwayRunsInning1: awayRuns,
		FinalScoreHome:  parseOptInt(row[14]),
		FinalScoreAway:  parseOptInt(row[15]),
	}
	// The stored flag is ignored; the counts are the truth.
	rec.RecomputeFirstInning()
	return rec, nil
}
