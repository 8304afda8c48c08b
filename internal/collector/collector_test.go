package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/source/statsapi"
)

type fakeGameSource struct {
	schedule []statsapi.ScheduledGame
	games    map[int64]pipeline.GameRecord
	fail     map[int64]error
	players  map[string]int64
}

func (f *fakeGameSource) Schedule(_ context.Context, _ int, _ int) ([]statsapi.ScheduledGame, error) {
	return f.schedule, nil
}

func (f *fakeGameSource) Game(_ context.Context, pk int64) (pipeline.GameRecord, []byte, error) {
	if err, ok := f.fail[pk]; ok {
		return pipeline.GameRecord{}, nil, err
	}
	return f.games[pk], []byte("{}"), nil
}

func (f *fakeGameSource) LookupPlayer(_ context.Context, name string) (int64, error) {
	if id, ok := f.players[name]; ok {
		return id, nil
	}
	return 0, &pipeline.UnknownEntityError{Kind: "player", Name: name}
}

type memorySink struct {
	mu      sync.Mutex
	flushes [][]pipeline.GameRecord
}

func (s *memorySink) UpsertGames(_ context.Context, recs []pipeline.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes = append(s.flushes, append([]pipeline.GameRecord(nil), recs...))
	return nil
}

func (s *memorySink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.flushes {
		n += len(b)
	}
	return n
}

func scheduleOf(n int) ([]statsapi.ScheduledGame, map[int64]pipeline.GameRecord) {
	var sched []statsapi.ScheduledGame
	games := make(map[int64]pipeline.GameRecord)
	for i := 0; i < n; i++ {
		pk := int64(1000 + i)
		date := fmt.Sprintf("2024-06-%02d", i+1)
		sched = append(sched, statsapi.ScheduledGame{
			GamePk: pk, Date: date, HomeTeam: "ATL", AwayTeam: "PHI", Status: "Final",
		})
		rec := pipeline.GameRecord{
			GamePk: pk, Date: date, HomeTeam: "ATL", AwayTeam: "PHI", HomeRunsInning1: i % 2,
		}
		rec.RecomputeFirstInning()
		games[pk] = rec
	}
	return sched, games
}

func TestCollectGamesSkipsFailuresAndFlushesBatches(t *testing.T) {
	sched, games := scheduleOf(10)
	src := &fakeGameSource{
		schedule: sched,
		games:    games,
		fail: map[int64]error{
			1003: &pipeline.NetworkError{URL: "http://x", StatusCode: 503, Attempts: 3},
			1007: &pipeline.MalformedRecordError{Source: "statsapi", ID: "1007", Field: "date"},
		},
	}
	sink := &memorySink{}
	c := New(Config{Games: src, GameSinks: []pipeline.GameSink{sink}, BatchSize: 3})

	sum, err := c.CollectGames(context.Background(), 2024, "", "", 0)
	require.NoError(t, err)

	assert.Equal(t, 10, sum.Fetched)
	assert.Equal(t, 8, sum.Written, "two bad games out of ten")
	assert.Equal(t, 1, sum.Skipped, "the malformed game also counts as a skip")
	assert.Equal(t, []string{"1003", "1007"}, sum.Failed,
		"both bad games are named for re-collection")
	assert.Equal(t, 8, sink.total())

	// Batch size three over eight good games: 3+3+2.
	require.Len(t, sink.flushes, 3)
	assert.Len(t, sink.flushes[2], 2)
}

func TestCollectGamesHonorsMaxGamesAndDateFilter(t *testing.T) {
	sched, games := scheduleOf(10)
	sched[4].Status = "Scheduled" // unfinished games never enter the slate
	src := &fakeGameSource{schedule: sched, games: games}
	sink := &memorySink{}
	c := New(Config{Games: src, GameSinks: []pipeline.GameSink{sink}})

	sum, err := c.CollectGames(context.Background(), 2024, "", "", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Written)

	sink2 := &memorySink{}
	c2 := New(Config{Games: src, GameSinks: []pipeline.GameSink{sink2}})
	sum2, err := c2.CollectGames(context.Background(), 2024, "", "2024-06-02", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sum2.Written)
	assert.Equal(t, int64(1001), sink2.flushes[0][0].GamePk)
}

func TestCollectGamesRejectsUnknownTeamFilter(t *testing.T) {
	c := New(Config{Games: &fakeGameSource{}})
	_, err := c.CollectGames(context.Background(), 2024, "Springfield Isotopes", "", 0)

	var unknown *pipeline.UnknownEntityError
	require.True(t, errors.As(err, &unknown))
}

func TestCollectGamesFlushesPartialBatchOnCancel(t *testing.T) {
	sched, games := scheduleOf(6)
	src := &fakeGameSource{schedule: sched, games: games}
	sink := &memorySink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancelAfter := &cancellingSource{inner: src, cancel: cancel, after: 4}
	c := New(Config{Games: cancelAfter, GameSinks: []pipeline.GameSink{sink}, BatchSize: 100})

	sum, err := c.CollectGames(ctx, 2024, "", "", 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, sum.Written, "parsed games are committed before returning")
	assert.Equal(t, 4, sink.total())
}

type cancellingSource struct {
	inner  *fakeGameSource
	cancel context.CancelFunc
	after  int
	calls  int
}

func (s *cancellingSource) Schedule(ctx context.Context, season, teamID int) ([]statsapi.ScheduledGame, error) {
	return s.inner.Schedule(ctx, season, teamID)
}

func (s *cancellingSource) Game(ctx context.Context, pk int64) (pipeline.GameRecord, []byte, error) {
	s.calls++
	if s.calls == s.after {
		defer s.cancel()
	}
	return s.inner.Game(ctx, pk)
}

func (s *cancellingSource) LookupPlayer(ctx context.Context, name string) (int64, error) {
	return s.inner.LookupPlayer(ctx, name)
}

type fakeProfileSource struct {
	profiles map[int64]pipeline.PitchProfileRecord
}

func (f *fakeProfileSource) Profile(_ context.Context, id int64, season int, role pipeline.PlayerRole) (pipeline.PitchProfileRecord, []byte, error) {
	rec, ok := f.profiles[id]
	if !ok {
		return pipeline.PitchProfileRecord{}, []byte("<html/>"), &pipeline.MalformedRecordError{
			Source: "savant", ID: fmt.Sprint(id), Field: "tables",
		}
	}
	rec.Season = season
	rec.Role = role
	return rec, []byte("<html/>"), nil
}

type memoryProfileStore struct {
	recs []pipeline.PitchProfileRecord
}

func (s *memoryProfileStore) Upsert(_ context.Context, recs []pipeline.PitchProfileRecord) error {
	s.recs = append(s.recs, recs...)
	return nil
}

func TestCollectProfilesDedupesAndSkipsUnknowns(t *testing.T) {
	src := &fakeGameSource{players: map[string]int64{
		"Zack Wheeler": 554430,
		"Aaron Nola":   605400,
	}}
	profiles := &fakeProfileSource{profiles: map[int64]pipeline.PitchProfileRecord{
		554430: {PlayerID: 554430, PlayerName: "Zack Wheeler"},
		605400: {PlayerID: 605400, PlayerName: "Aaron Nola"},
	}}
	store := &memoryProfileStore{}
	c := New(Config{Games: src, Profiles: profiles, ProfileStore: store})

	names := []string{"Zack Wheeler", "Aaron Nola", "Zack Wheeler", "Nobody Special"}
	sum, err := c.CollectProfiles(context.Background(), 2024, names, pipeline.RolePitcher)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Written, "duplicate names collapse to one scrape")
	assert.Equal(t, []string{"Nobody Special"}, sum.Failed)
	require.Len(t, store.recs, 2)
	assert.Equal(t, 2024, store.recs[0].Season)
}

type fakeDailySources struct {
	lineups []pipeline.LineupRecord
	umps    []pipeline.UmpireRecord
	odds    []pipeline.OddsRecord
	oddsErr error
}

func (f *fakeDailySources) DailyLineups(context.Context, string) ([]pipeline.LineupRecord, []byte, error) {
	return f.lineups, []byte("<html/>"), nil
}

func (f *fakeDailySources) Assignments(context.Context, string) ([]pipeline.UmpireRecord, []byte, error) {
	return f.umps, []byte("<html/>"), nil
}

func (f *fakeDailySources) Odds(context.Context, string) ([]pipeline.OddsRecord, []byte, error) {
	return f.odds, []byte("{}"), f.oddsErr
}

type memoryOddsStore struct {
	byKey map[pipeline.GameKey]pipeline.OddsRecord
}

func (s *memoryOddsStore) Load(context.Context) (map[pipeline.GameKey]pipeline.OddsRecord, error) {
	out := make(map[pipeline.GameKey]pipeline.OddsRecord, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out, nil
}

func (s *memoryOddsStore) Upsert(_ context.Context, recs []pipeline.OddsRecord) error {
	for _, r := range recs {
		s.byKey[r.Key] = r
	}
	return nil
}

type memoryLineupStore struct{ recs []pipeline.LineupRecord }

func (s *memoryLineupStore) Upsert(_ context.Context, recs []pipeline.LineupRecord) error {
	s.recs = append(s.recs, recs...)
	return nil
}

type memoryUmpireStore struct{ recs []pipeline.UmpireRecord }

func (s *memoryUmpireStore) Upsert(_ context.Context, recs []pipeline.UmpireRecord) error {
	s.recs = append(s.recs, recs...)
	return nil
}

func TestCollectDailyTracksLineMovement(t *testing.T) {
	key := pipeline.MakeGameKey("2024-06-15", "ATL", "PHI")
	opening := -110
	oddsStore := &memoryOddsStore{byKey: map[pipeline.GameKey]pipeline.OddsRecord{
		key: {Key: key, YRFIOdds: -110, OpeningYRFI: &opening},
	}}
	daily := &fakeDailySources{
		lineups: []pipeline.LineupRecord{{Key: key, Date: "2024-06-15", HomeTeam: "ATL", AwayTeam: "PHI"}},
		umps:    []pipeline.UmpireRecord{{Key: key, Name: "Ron Kulpa"}},
		odds:    []pipeline.OddsRecord{{Key: key, YRFIOdds: -120, NRFIOdds: 100}},
	}
	lineupStore := &memoryLineupStore{}
	umpStore := &memoryUmpireStore{}
	c := New(Config{
		Lineups: daily, Umpires: daily, Odds: daily,
		LineupStore: lineupStore, UmpireStore: umpStore, OddsStore: oddsStore,
	})

	sum, err := c.CollectDaily(context.Background(), "2024-06-15")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Written)
	assert.Empty(t, sum.Failed)

	stored := oddsStore.byKey[key]
	require.NotNil(t, stored.OpeningYRFI)
	assert.Equal(t, -110, *stored.OpeningYRFI, "opening price survives the refresh")
	assert.Equal(t, "YRFI", stored.Movement)
	assert.Equal(t, 10, stored.MovementCents)
	assert.Len(t, lineupStore.recs, 1)
	assert.Len(t, umpStore.recs, 1)
}

func TestCollectDailySourcesFailIndependently(t *testing.T) {
	key := pipeline.MakeGameKey("2024-06-15", "ATL", "PHI")
	daily := &fakeDailySources{
		lineups: []pipeline.LineupRecord{{Key: key}},
		umps:    []pipeline.UmpireRecord{{Key: key}},
		oddsErr: &pipeline.NetworkError{URL: "http://dk", StatusCode: 403, Attempts: 1},
	}
	c := New(Config{
		Lineups: daily, Umpires: daily, Odds: daily,
		LineupStore: &memoryLineupStore{},
		UmpireStore: &memoryUmpireStore{},
		OddsStore:   &memoryOddsStore{byKey: map[pipeline.GameKey]pipeline.OddsRecord{}},
	})

	sum, err := c.CollectDaily(context.Background(), "2024-06-15")
	require.NoError(t, err, "one dead source does not abort the run")
	assert.Equal(t, 2, sum.Written)
	assert.Equal(t, []string{"2024-06-15"}, sum.Failed)
}
