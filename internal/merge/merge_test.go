package merge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/dataset"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

func seedStores(t *testing.T) Stores {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	games := dataset.NewGameStore(filepath.Join(dir, "games.csv"))
	recs := []pipeline.GameRecord{
		{GamePk: 1, Date: "2024-06-15", HomeTeam: "ATL", AwayTeam: "PHI", HomePitcher: "Spencer Schwellenbach", AwayPitcher: "Zack Wheeler", HomeRunsInning1: 1},
		{GamePk: 2, Date: "2024-06-15", HomeTeam: "BOS", AwayTeam: "NYY"},
		{GamePk: 3, Date: "2024-06-16", HomeTeam: "ATL", AwayTeam: "PHI"},
	}
	for i := range recs {
		recs[i].RecomputeFirstInning()
	}
	require.NoError(t, games.UpsertGames(ctx, recs))

	lineups := dataset.NewLineupStore(filepath.Join(dir, "lineups.csv"))
	require.NoError(t, lineups.Upsert(ctx, []pipeline.LineupRecord{
		// Variant spellings in the key still join after normalization.
		{Key: pipeline.MakeGameKey("2024-06-15", "Braves", "phillies"), Date: "2024-06-15", HomeTeam: "ATL", AwayTeam: "PHI", HomeConfirmed: true},
		{Key: pipeline.MakeGameKey("2024-06-15", "Narnia", "PHI"), Date: "2024-06-15"},
	}))

	umpires := dataset.NewUmpireStore(filepath.Join(dir, "umpires.csv"))
	require.NoError(t, umpires.Upsert(ctx, []pipeline.UmpireRecord{
		{Key: pipeline.MakeGameKey("2024-06-15", "ATL", "PHI"), Name: "Ron Kulpa", ZoneScore: 0.7, RunImpact: -0.42, Tendency: "pitcher"},
	}))

	odds := dataset.NewOddsStore(filepath.Join(dir, "odds.csv"))
	require.NoError(t, odds.Upsert(ctx, []pipeline.OddsRecord{
		{Key: pipeline.MakeGameKey("2024-06-15", "BOS", "NYY"), YRFIOdds: -110, NRFIOdds: -110, YRFIImplied: 0.524, NRFIImplied: 0.524},
	}))

	profiles := dataset.NewProfileStore(filepath.Join(dir, "profiles.csv"))
	era := 2.85
	require.NoError(t, profiles.Upsert(ctx, []pipeline.PitchProfileRecord{
		{PlayerID: 554430, PlayerName: "Zack Wheeler", Role: pipeline.RolePitcher, Season: 2024, FirstInning: pipeline.InningLine{ERA: &era}},
		{PlayerID: 660670, PlayerName: "Ronald Acuna Jr.", Role: pipeline.RoleBatter, Season: 2024},
	}))

	return Stores{Games: games, Profiles: profiles, Lineups: lineups, Umpires: umpires, Odds: odds}
}

func TestMergeAnchorsOnGames(t *testing.T) {
	m := New(seedStores(t), nil)
	rows, sum, err := m.Merge(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 3, "every game appears exactly once regardless of context coverage")
	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, 1, sum.WithLineup)
	assert.Equal(t, 1, sum.WithUmpire)
	assert.Equal(t, 1, sum.WithOdds)
	assert.Equal(t, 1, sum.Dropped, "the unresolvable lineup key is dropped, not guessed")
}

func TestMergeJoinsNormalizedKeys(t *testing.T) {
	m := New(seedStores(t), nil)
	rows, _, err := m.Merge(context.Background())
	require.NoError(t, err)

	atl := rows[0]
	require.Equal(t, int64(1), atl.Game.GamePk)
	require.NotNil(t, atl.Lineup, "a key written as Braves/phillies joins the ATL/PHI game")
	assert.True(t, atl.Lineup.HomeConfirmed)
	require.NotNil(t, atl.Umpire)
	assert.Equal(t, "Ron Kulpa", atl.Umpire.Name)
	assert.Nil(t, atl.Odds, "no odds were stored for this game")

	require.NotNil(t, atl.AwayPitcherProfile)
	require.NotNil(t, atl.AwayPitcherProfile.FirstInning.ERA)
	assert.Equal(t, 2.85, *atl.AwayPitcherProfile.FirstInning.ERA)
	assert.Nil(t, atl.HomePitcherProfile, "no profile collected for the home starter")

	bos := rows[1]
	require.NotNil(t, bos.Odds)
	assert.Equal(t, -110, bos.Odds.YRFIOdds)
	assert.Nil(t, bos.Lineup)

	later := rows[2]
	assert.Nil(t, later.Lineup)
	assert.Nil(t, later.Umpire)
	assert.Nil(t, later.Odds)
}

func TestRunWritesMergedCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "merged.csv")
	m := New(seedStores(t), nil)

	sum, err := m.Run(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Rows)
	assert.FileExists(t, out)
}
