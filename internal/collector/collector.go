// Package collector orchestrates collection runs: it walks the schedule,
// fans fetches through the rate-limited client, batches parsed records, and
// upserts them so a re-run of the same slate is a no-op.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/progress"
	"github.com/diamondsights/yrfi-pipeline/internal/source/draftkings"
	"github.com/diamondsights/yrfi-pipeline/internal/source/statsapi"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// defaultBatchSize is how many parsed games accumulate before a flush.
const defaultBatchSize = 25

// GameSource yields the schedule and individual game feeds.
type GameSource interface {
	Schedule(ctx context.Context, season int, teamID int) ([]statsapi.ScheduledGame, error)
	Game(ctx context.Context, gamePk int64) (pipeline.GameRecord, []byte, error)
	LookupPlayer(ctx context.Context, name string) (int64, error)
}

// ProfileSource yields pitch profiles for one player-season.
type ProfileSource interface {
	Profile(ctx context.Context, playerID int64, season int, role pipeline.PlayerRole) (pipeline.PitchProfileRecord, []byte, error)
}

// LineupSource yields lineup cards for one date.
type LineupSource interface {
	DailyLineups(ctx context.Context, date string) ([]pipeline.LineupRecord, []byte, error)
}

// UmpireSource yields umpire assignments for one date.
type UmpireSource interface {
	Assignments(ctx context.Context, date string) ([]pipeline.UmpireRecord, []byte, error)
}

// OddsSource yields YRFI/NRFI prices for one date.
type OddsSource interface {
	Odds(ctx context.Context, date string) ([]pipeline.OddsRecord, []byte, error)
}

// ProfileStore persists pitch profiles.
type ProfileStore interface {
	Upsert(ctx context.Context, recs []pipeline.PitchProfileRecord) error
}

// LineupStore persists lineup cards.
type LineupStore interface {
	Upsert(ctx context.Context, recs []pipeline.LineupRecord) error
}

// UmpireStore persists umpire assignments.
type UmpireStore interface {
	Upsert(ctx context.Context, recs []pipeline.UmpireRecord) error
}

// OddsStore persists odds snapshots and exposes the stored ones so line
// movement can be tracked across refreshes.
type OddsStore interface {
	Load(ctx context.Context) (map[pipeline.GameKey]pipeline.OddsRecord, error)
	Upsert(ctx context.Context, recs []pipeline.OddsRecord) error
}

// Config wires the collector's sources and stores. Optional fields may stay
// nil: extra game sinks, the archiver, and the emitter all default to off.
type Config struct {
	Games    GameSource
	Profiles ProfileSource
	Lineups  LineupSource
	Umpires  UmpireSource
	Odds     OddsSource

	GameSinks    []pipeline.GameSink
	ProfileStore ProfileStore
	LineupStore  LineupStore
	UmpireStore  UmpireStore
	OddsStore    OddsStore

	Archiver  pipeline.Archiver
	Emitter   progress.Emitter
	Logger    *zap.Logger
	Clock     pipeline.Clock
	BatchSize int
}

// Collector runs collection operations. Safe for sequential use; one run at
// a time.
type Collector struct {
	cfg     Config
	logger  *zap.Logger
	clock   pipeline.Clock
	emitter progress.Emitter
}

// New builds a collector, filling defaults for the optional pieces.
func New(cfg Config) *Collector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = pipeline.SystemClock{}
	}
	if cfg.Emitter == nil {
		cfg.Emitter = progress.Discard{}
	}
	return &Collector{
		cfg:     cfg,
		logger:  cfg.Logger.Named("collector"),
		clock:   cfg.Clock,
		emitter: cfg.Emitter,
	}
}

// Summary reports what one run did. Failed holds the record ids that could
// not be collected; a non-empty list makes the CLI exit nonzero.
type Summary struct {
	RunID   string
	Fetched int
	Written int
	Skipped int
	Failed  []string
	Elapsed time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("fetched=%d written=%d skipped=%d failed=%d elapsed=%s",
		s.Fetched, s.Written, s.Skipped, len(s.Failed), s.Elapsed.Round(time.Millisecond))
}

// CollectGames walks a season's schedule and collects every final game.
// teamFilter limits the slate to one club (any recognized spelling); dateFilter
// (YYYY-MM-DD) limits it to one day; maxGames caps the run for smoke tests.
//
// Games move through fetch then parse then batch; a malformed or failed game
// is recorded and skipped, never aborting the run. Cancellation flushes the
// partial batch before returning.
func (c *Collector) CollectGames(ctx context.Context, season int, teamFilter, dateFilter string, maxGames int) (Summary, error) {
	runID := progress.NewRunID()
	start := c.clock.Now()
	sum := Summary{RunID: runID.String()}
	c.emit(progress.Event{RunID: runID, TS: start, Stage: progress.StageRunStart})

	teamID := 0
	if teamFilter != "" {
		canonical, err := teams.Resolve(teamFilter)
		if err != nil {
			return sum, err
		}
		id, ok := teams.StatsAPIID(canonical)
		if !ok {
			return sum, &pipeline.UnknownEntityError{Kind: "team", Name: teamFilter}
		}
		teamID = id
	}

	scheduled, err := c.cfg.Games.Schedule(ctx, season, teamID)
	if err != nil {
		c.emit(progress.Event{RunID: runID, TS: c.clock.Now(), Stage: progress.StageRunError, Note: err.Error()})
		return sum, fmt.Errorf("load schedule: %w", err)
	}

	var slate []statsapi.ScheduledGame
	for _, g := range scheduled {
		if !g.Final() {
			continue
		}
		if dateFilter != "" && g.Date != dateFilter {
			continue
		}
		slate = append(slate, g)
		if maxGames > 0 && len(slate) >= maxGames {
			break
		}
	}
	c.logger.Info("slate assembled",
		zap.Int("season", season),
		zap.Int("scheduled", len(scheduled)),
		zap.Int("final_games", len(slate)))

	batch := make([]pipeline.GameRecord, 0, c.cfg.BatchSize)
	cancelled := false
	for _, g := range slate {
		if err := ctx.Err(); err != nil {
			cancelled = true
			break
		}
		rec, ok := c.collectOneGame(ctx, runID, g, &sum)
		if !ok {
			continue
		}
		batch = append(batch, rec)
		if len(batch) >= c.cfg.BatchSize {
			if err := c.flushGames(ctx, runID, batch, &sum); err != nil {
				return sum, err
			}
			batch = batch[:0]
		}
	}

	// A cancelled run still commits what it parsed.
	if len(batch) > 0 {
		if err := c.flushGames(context.WithoutCancel(ctx), runID, batch, &sum); err != nil {
			return sum, err
		}
	}

	sum.Elapsed = c.clock.Now().Sub(start)
	c.finishRun(runID, &sum)
	if cancelled {
		return sum, ctx.Err()
	}
	return sum, nil
}

func (c *Collector) collectOneGame(ctx context.Context, runID progress.RunID, g statsapi.ScheduledGame, sum *Summary) (pipeline.GameRecord, bool) {
	pk := strconv.FormatInt(g.GamePk, 10)
	rec, raw, err := c.cfg.Games.Game(ctx, g.GamePk)
	sum.Fetched++

	if raw != nil {
		c.archive(ctx, "statsapi/"+g.Date+"/"+pk+".json", "application/json", raw)
	}
	if err != nil {
		c.recordFailure(runID, "statsapi", pk, err, sum)
		return pipeline.GameRecord{}, false
	}
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageRecordOK,
		Source: "statsapi", RecordID: pk,
	})
	return rec, true
}

func (c *Collector) flushGames(ctx context.Context, runID progress.RunID, batch []pipeline.GameRecord, sum *Summary) error {
	for _, sink := range c.cfg.GameSinks {
		if err := sink.UpsertGames(ctx, batch); err != nil {
			c.emit(progress.Event{RunID: runID, TS: c.clock.Now(), Stage: progress.StageRunError, Note: err.Error()})
			return fmt.Errorf("flush %d games: %w", len(batch), err)
		}
	}
	sum.Written += len(batch)
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageBatchFlush,
		Source: "statsapi", Records: int64(len(batch)),
	})
	c.logger.Info("batch flushed", zap.Int("games", len(batch)))
	return nil
}

// CollectProfiles resolves the named players and scrapes one profile each for
// the season. Unknown players and failed scrapes are skipped and reported.
func (c *Collector) CollectProfiles(ctx context.Context, season int, names []string, role pipeline.PlayerRole) (Summary, error) {
	runID := progress.NewRunID()
	start := c.clock.Now()
	sum := Summary{RunID: runID.String()}
	c.emit(progress.Event{RunID: runID, TS: start, Stage: progress.StageRunStart})

	seen := make(map[int64]bool)
	var recs []pipeline.PitchProfileRecord
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			break
		}
		id, err := c.cfg.Games.LookupPlayer(ctx, name)
		if err != nil {
			c.recordFailure(runID, "savant", name, err, &sum)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		rec, raw, err := c.cfg.Profiles.Profile(ctx, id, season, role)
		sum.Fetched++
		if raw != nil {
			c.archive(ctx, fmt.Sprintf("savant/%d_%d.html", id, season), "text/html", raw)
		}
		if err != nil {
			c.recordFailure(runID, "savant", name, err, &sum)
			continue
		}
		recs = append(recs, rec)
		c.emit(progress.Event{
			RunID: runID, TS: c.clock.Now(), Stage: progress.StageRecordOK,
			Source: "savant", RecordID: strconv.FormatInt(id, 10),
		})
	}

	if len(recs) > 0 && c.cfg.ProfileStore != nil {
		if err := c.cfg.ProfileStore.Upsert(context.WithoutCancel(ctx), recs); err != nil {
			return sum, err
		}
		sum.Written = len(recs)
	}
	sum.Elapsed = c.clock.Now().Sub(start)
	c.finishRun(runID, &sum)
	return sum, ctx.Err()
}

// CollectDaily gathers the optional context sources for one date: lineups,
// umpire assignments, and odds. Each source fails independently; the run
// reports per-source errors without aborting the others.
func (c *Collector) CollectDaily(ctx context.Context, date string) (Summary, error) {
	runID := progress.NewRunID()
	start := c.clock.Now()
	sum := Summary{RunID: runID.String()}
	c.emit(progress.Event{RunID: runID, TS: start, Stage: progress.StageRunStart})

	c.collectLineups(ctx, runID, date, &sum)
	c.collectUmpires(ctx, runID, date, &sum)
	c.collectOdds(ctx, runID, date, &sum)

	sum.Elapsed = c.clock.Now().Sub(start)
	c.finishRun(runID, &sum)
	return sum, ctx.Err()
}

func (c *Collector) collectLineups(ctx context.Context, runID progress.RunID, date string, sum *Summary) {
	if c.cfg.Lineups == nil || c.cfg.LineupStore == nil {
		return
	}
	sourceStart := c.clock.Now()
	recs, raw, err := c.cfg.Lineups.DailyLineups(ctx, date)
	sum.Fetched++
	if raw != nil {
		c.archive(ctx, "rotowire/"+date+".html", "text/html", raw)
	}
	if err != nil {
		c.recordFailure(runID, "rotowire", date, err, sum)
		return
	}
	if err := c.cfg.LineupStore.Upsert(ctx, recs); err != nil {
		c.recordFailure(runID, "rotowire", date, err, sum)
		return
	}
	sum.Written += len(recs)
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageSourceDone,
		Source: "rotowire", Records: int64(len(recs)), Dur: c.clock.Now().Sub(sourceStart),
	})
}

func (c *Collector) collectUmpires(ctx context.Context, runID progress.RunID, date string, sum *Summary) {
	if c.cfg.Umpires == nil || c.cfg.UmpireStore == nil {
		return
	}
	sourceStart := c.clock.Now()
	recs, raw, err := c.cfg.Umpires.Assignments(ctx, date)
	sum.Fetched++
	if raw != nil {
		c.archive(ctx, "umpires/"+date+".html", "text/html", raw)
	}
	if err != nil {
		c.recordFailure(runID, "umpires", date, err, sum)
		return
	}
	if err := c.cfg.UmpireStore.Upsert(ctx, recs); err != nil {
		c.recordFailure(runID, "umpires", date, err, sum)
		return
	}
	sum.Written += len(recs)
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageSourceDone,
		Source: "umpires", Records: int64(len(recs)), Dur: c.clock.Now().Sub(sourceStart),
	})
}

func (c *Collector) collectOdds(ctx context.Context, runID progress.RunID, date string, sum *Summary) {
	if c.cfg.Odds == nil || c.cfg.OddsStore == nil {
		return
	}
	sourceStart := c.clock.Now()
	recs, raw, err := c.cfg.Odds.Odds(ctx, date)
	sum.Fetched++
	if raw != nil {
		c.archive(ctx, "draftkings/"+date+".json", "application/json", raw)
	}
	if err != nil {
		c.recordFailure(runID, "draftkings", date, err, sum)
		return
	}

	stored, err := c.cfg.OddsStore.Load(ctx)
	if err != nil {
		c.recordFailure(runID, "draftkings", date, err, sum)
		return
	}
	tracked := make([]pipeline.OddsRecord, 0, len(recs))
	for _, rec := range recs {
		var prev *pipeline.OddsRecord
		if existing, ok := stored[rec.Key]; ok {
			prev = &existing
		}
		tracked = append(tracked, draftkings.TrackMovement(prev, rec))
	}
	if err := c.cfg.OddsStore.Upsert(ctx, tracked); err != nil {
		c.recordFailure(runID, "draftkings", date, err, sum)
		return
	}
	sum.Written += len(tracked)
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageSourceDone,
		Source: "draftkings", Records: int64(len(tracked)), Dur: c.clock.Now().Sub(sourceStart),
	})
}

// recordFailure classifies and logs one failed record. Every failure lands
// in the failed list so the summary names what to re-collect; malformed
// records additionally count as skips since the run continues past them.
func (c *Collector) recordFailure(runID progress.RunID, source, id string, err error, sum *Summary) {
	sum.Failed = append(sum.Failed, id)
	var malformed *pipeline.MalformedRecordError
	if errors.As(err, &malformed) {
		sum.Skipped++
		c.logger.Warn("skipping malformed record",
			zap.String("source", source), zap.String("record", id), zap.Error(err))
	} else {
		c.logger.Error("record collection failed",
			zap.String("source", source), zap.String("record", id), zap.Error(err))
	}
	c.emit(progress.Event{
		RunID: runID, TS: c.clock.Now(), Stage: progress.StageRecordSkip,
		Source: source, RecordID: id, Note: err.Error(),
	})
}

func (c *Collector) finishRun(runID progress.RunID, sum *Summary) {
	stage := progress.StageRunDone
	if len(sum.Failed) > 0 {
		stage = progress.StageRunError
	}
	c.emit(progress.Event{RunID: runID, TS: c.clock.Now(), Stage: stage, Dur: sum.Elapsed})
	c.logger.Info("run finished",
		zap.String("run_id", sum.RunID),
		zap.Int("fetched", sum.Fetched),
		zap.Int("written", sum.Written),
		zap.Int("skipped", sum.Skipped),
		zap.Strings("failed", sum.Failed),
		zap.Duration("elapsed", sum.Elapsed))
}

func (c *Collector) archive(ctx context.Context, path, contentType string, data []byte) {
	if c.cfg.Archiver == nil {
		return
	}
	if _, err := c.cfg.Archiver.Put(ctx, path, contentType, data); err != nil {
		c.logger.Warn("raw archive write failed", zap.String("path", path), zap.Error(err))
	}
}

func (c *Collector) emit(evt progress.Event) {
	c.emitter.Emit(evt)
}
