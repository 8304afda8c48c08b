// Package app initializes and holds the long-lived services behind every
// CLI command: the fetcher, the source clients, the dataset stores, the
// optional Postgres mirror, and the progress hub.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/archive"
	"github.com/diamondsights/yrfi-pipeline/internal/bets"
	"github.com/diamondsights/yrfi-pipeline/internal/collector"
	"github.com/diamondsights/yrfi-pipeline/internal/config"
	"github.com/diamondsights/yrfi-pipeline/internal/dataset"
	"github.com/diamondsights/yrfi-pipeline/internal/fetch"
	"github.com/diamondsights/yrfi-pipeline/internal/logging"
	"github.com/diamondsights/yrfi-pipeline/internal/merge"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/progress"
	"github.com/diamondsights/yrfi-pipeline/internal/progress/sinks"
	"github.com/diamondsights/yrfi-pipeline/internal/source/draftkings"
	"github.com/diamondsights/yrfi-pipeline/internal/source/rotowire"
	"github.com/diamondsights/yrfi-pipeline/internal/source/savant"
	"github.com/diamondsights/yrfi-pipeline/internal/source/statsapi"
	"github.com/diamondsights/yrfi-pipeline/internal/source/umpires"
	"github.com/diamondsights/yrfi-pipeline/internal/storage/postgres"
)

// Dataset file names under data.dir.
const (
	GamesFile    = "games.csv"
	ProfilesFile = "pitch_profiles.csv"
	LineupsFile  = "lineups.csv"
	UmpiresFile  = "umpires.csv"
	OddsFile     = "odds.csv"
	MergedFile   = "first_inning_dataset.csv"
	BetsFile     = "bets.csv"
)

// App is the dependency container built once per invocation.
type App struct {
	Cfg     config.Config
	Logger  *zap.Logger
	Fetcher *fetch.Client
	Hub     *progress.Hub

	Games      *statsapi.Client
	Savant     *savant.Client
	RotoWire   *rotowire.Client
	Umpires    *umpires.Client
	DraftKings *draftkings.Client

	GameStore    *dataset.GameStore
	ProfileStore *dataset.ProfileStore
	LineupStore  *dataset.LineupStore
	UmpireStore  *dataset.UmpireStore
	OddsStore    *dataset.OddsStore

	// Mirror and BetMirror are nil when db.dsn is empty.
	Mirror    *postgres.GameStore
	BetMirror *postgres.BetStore
	// Archiver is nil unless data.archive_raw is on.
	Archiver *archive.Store

	renderer *fetch.HeadlessRenderer
}

// New builds the container. It fails fast: a bad DSN or an unwritable raw
// directory surfaces here, not mid-run.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.NewWithFile(cfg.Logging.Development, cfg.Data.LogDir, time.Now())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Cfg: cfg, Logger: logger}

	a.Fetcher = fetch.New(fetch.Config{
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      cfg.Timeout(),
		Concurrency:  cfg.HTTP.Concurrency,
		PerHostRPS:   cfg.HTTP.PerHostRPS,
		PerHostBurst: cfg.HTTP.PerHostBurst,
		MaxRetries:   cfg.HTTP.MaxRetries,
		BackoffBase:  cfg.BackoffBase(),
		BackoffMax:   cfg.BackoffMax(),
	}, logger)

	var renderer draftkings.Renderer
	if cfg.Sources.HeadlessFallback {
		hr, err := fetch.NewHeadlessRenderer(cfg.HTTP.UserAgent, cfg.Timeout(), logger)
		if err != nil {
			return nil, fmt.Errorf("init headless renderer: %w", err)
		}
		a.renderer = hr
		renderer = hr
	}

	a.Games = statsapi.NewClient(a.Fetcher, cfg.Sources.StatsAPIBaseURL, logger)
	a.Savant = savant.NewClient(a.Fetcher, cfg.Sources.SavantBaseURL, logger)
	a.RotoWire = rotowire.NewClient(a.Fetcher, cfg.Sources.RotoWireBaseURL, logger)
	a.Umpires = umpires.NewClient(a.Fetcher, cfg.Sources.UmpiresBaseURL, logger)
	a.DraftKings = draftkings.NewClient(a.Fetcher, renderer, cfg.Sources.DraftKingsBaseURL, logger)

	a.GameStore = dataset.NewGameStore(a.DataPath(GamesFile))
	a.ProfileStore = dataset.NewProfileStore(a.DataPath(ProfilesFile))
	a.LineupStore = dataset.NewLineupStore(a.DataPath(LineupsFile))
	a.UmpireStore = dataset.NewUmpireStore(a.DataPath(UmpiresFile))
	a.OddsStore = dataset.NewOddsStore(a.DataPath(OddsFile))

	if cfg.DB.DSN != "" {
		mirror, err := postgres.NewGameStore(ctx, postgres.GameStoreConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxOpenConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres mirror: %w", err)
		}
		a.Mirror = mirror
		betMirror, err := postgres.NewBetStoreFrom(mirror, "")
		if err != nil {
			return nil, fmt.Errorf("init postgres bet mirror: %w", err)
		}
		a.BetMirror = betMirror
	}

	if cfg.Data.ArchiveRaw {
		store, err := archive.New(archive.Config{
			BaseDir:  cfg.Data.RawDir,
			MaxBytes: cfg.Data.MaxRawBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("init raw archive: %w", err)
		}
		a.Archiver = store
	}

	// The fetch package registers its metrics on the default registerer via
	// promauto; everything else joins it so /metrics serves one surface.
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init prometheus sink: %w", err)
	}
	a.Hub = progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger), promSink)

	return a, nil
}

// DataPath resolves a dataset file under the configured data directory.
func (a *App) DataPath(name string) string {
	return filepath.Join(a.Cfg.Data.Dir, name)
}

// Collector assembles a collector over the app's sources and stores.
func (a *App) Collector() *collector.Collector {
	gameSinks := []pipeline.GameSink{a.GameStore}
	if a.Mirror != nil {
		gameSinks = append(gameSinks, a.Mirror)
	}
	var archiver pipeline.Archiver
	if a.Archiver != nil {
		archiver = a.Archiver
	}
	return collector.New(collector.Config{
		Games:        a.Games,
		Profiles:     a.Savant,
		Lineups:      a.RotoWire,
		Umpires:      a.Umpires,
		Odds:         a.DraftKings,
		GameSinks:    gameSinks,
		ProfileStore: a.ProfileStore,
		LineupStore:  a.LineupStore,
		UmpireStore:  a.UmpireStore,
		OddsStore:    a.OddsStore,
		Archiver:     archiver,
		Emitter:      a.Hub,
		Logger:       a.Logger,
		BatchSize:    a.Cfg.Data.BatchSize,
	})
}

// Merger assembles the dataset merger over the app's stores.
func (a *App) Merger() *merge.Merger {
	return merge.New(merge.Stores{
		Games:    a.GameStore,
		Profiles: a.ProfileStore,
		Lineups:  a.LineupStore,
		Umpires:  a.UmpireStore,
		Odds:     a.OddsStore,
	}, a.Logger)
}

// BetLog opens the bet ledger, mirrored to Postgres when configured.
func (a *App) BetLog() *bets.Log {
	l := bets.NewLog(a.DataPath(BetsFile))
	if a.BetMirror != nil {
		l.Mirror = a.BetMirror
	}
	return l
}

// Close drains the progress hub and releases every held resource.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Hub != nil {
		if err := a.Hub.Close(ctx); err != nil {
			a.Logger.Warn("progress hub close", zap.Error(err))
		}
	}
	if a.Mirror != nil {
		a.Mirror.Close()
	}
	a.renderer.Close()
	_ = a.Logger.Sync()
}
