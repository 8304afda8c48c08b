package dataset

import (
	"strconv"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// mergedHeader is the model-ready feature layout. Optional-source columns are
// empty when that source never arrived for the game.
var mergedHeader = []string{
	"game_pk", "date", "home_team", "away_team", "venue",
	"home_pitcher", "away_pitcher",
	"temperature", "wind_speed", "wind_direction", "condition",
	"first_inning_runs_home", "first_inning_runs_away", "first_inning_run_scored",
	"final_score_home", "final_score_away",
	"lineup_home_confirmed", "lineup_away_confirmed",
	"umpire", "umpire_zone_score", "umpire_run_impact", "umpire_tendency",
	"yrfi_odds", "nrfi_odds", "yrfi_implied_prob", "nrfi_implied_prob", "line_movement",
	"home_sp_fi_era", "home_sp_fi_whip", "away_sp_fi_era", "away_sp_fi_whip",
}

// WriteMerged renders the merged dataset to path. Row order is the caller's;
// the merger keeps games sorted by date.
func WriteMerged(path string, rows []pipeline.MergedFeatureRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, mergedToRow(r))
	}
	return writeAtomic(path, mergedHeader, out)
}

func mergedToRow(r pipeline.MergedFeatureRow) []string {
	row := gameToRow(r.Game)

	if r.Lineup != nil {
		row = append(row, formatBool(r.Lineup.HomeConfirmed), formatBool(r.Lineup.AwayConfirmed))
	} else {
		row = append(row, "", "")
	}

	if r.Umpire != nil {
		row = append(row,
			r.Umpire.Name,
			strconv.FormatFloat(r.Umpire.ZoneScore, 'f', -1, 64),
			strconv.FormatFloat(r.Umpire.RunImpact, 'f', -1, 64),
			r.Umpire.Tendency,
		)
	} else {
		row = append(row, "", "", "", "")
	}

	if r.Odds != nil {
		row = append(row,
			strconv.Itoa(r.Odds.YRFIOdds),
			strconv.Itoa(r.Odds.NRFIOdds),
			strconv.FormatFloat(r.Odds.YRFIImplied, 'f', -1, 64),
			strconv.FormatFloat(r.Odds.NRFIImplied, 'f', -1, 64),
			r.Odds.Movement,
		)
	} else {
		row = append(row, "", "", "", "", "")
	}

	row = append(row, profileCols(r.HomePitcherProfile)...)
	row = append(row, profileCols(r.AwayPitcherProfile)...)
	return row
}

func profileCols(p *pipeline.PitchProfileRecord) []string {
	if p == nil {
		return []string{"", ""}
	}
	return []string{
		formatOptFloat(p.FirstInning.ERA),
		formatOptFloat(p.FirstInning.WHIP),
	}
}
