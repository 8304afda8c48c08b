package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/app"
	"github.com/diamondsights/yrfi-pipeline/internal/sched"
)

func newDailyCmd() *cobra.Command {
	var cronSpec string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Run the daily refresh: yesterday's results, today's slate, re-merge.",
		Long: `daily collects yesterday's final games, settles any pending bets they
decide, collects today's lineups, umpires, and odds, and rebuilds the merged
dataset. With --cron it stays resident and repeats on that schedule,
exposing /healthz and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if cronSpec == "" {
				return dailyJob(a)(cmd.Context())
			}
			if cronSpec == "config" {
				cronSpec = a.Cfg.Daily.CronSpec
			}

			s, err := sched.New(sched.Config{
				CronSpec: cronSpec,
				Addr:     fmt.Sprintf(":%d", a.Cfg.Daily.MetricsPort),
				Job:      dailyJob(a),
				Logger:   a.Logger,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "", `stay resident and run on this cron spec, e.g. "0 23 * * *" ("config" = use daily.cron_spec)`)
	cmd.Flags().Lookup("cron").NoOptDefVal = "config"
	return cmd
}

// dailyJob builds the refresh closure shared by the one-shot and resident
// modes. Each stage runs even when an earlier one fails; the first error is
// reported after the merge so one bad source never blocks the rest.
func dailyJob(a *app.App) sched.Job {
	return func(ctx context.Context) error {
		now := time.Now()
		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		today := now.Format("2006-01-02")
		c := a.Collector()

		var firstErr error
		keep := func(err error) {
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}

		gamesSum, err := c.CollectGames(ctx, now.Year(), "", yesterday, 0)
		keep(err)
		if err == nil && len(gamesSum.Failed) > 0 {
			keep(fmt.Errorf("games: %d record(s) failed", len(gamesSum.Failed)))
		}
		a.Logger.Info("daily games collected",
			zap.String("date", yesterday), zap.String("summary", gamesSum.String()))

		if err := settlePendingBets(ctx, a); err != nil {
			keep(err)
		}

		dailySum, err := c.CollectDaily(ctx, today)
		keep(err)
		if err == nil && len(dailySum.Failed) > 0 {
			keep(fmt.Errorf("daily: %d source(s) failed", len(dailySum.Failed)))
		}
		a.Logger.Info("daily slate collected",
			zap.String("date", today), zap.String("summary", dailySum.String()))

		mergeSum, err := a.Merger().Run(ctx, a.DataPath(app.MergedFile))
		keep(err)
		if err == nil {
			a.Logger.Info("dataset merged", zap.String("summary", mergeSum.String()))
		}
		return firstErr
	}
}

func settlePendingBets(ctx context.Context, a *app.App) error {
	games, err := a.GameStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("load games for settlement: %w", err)
	}
	settled, err := a.BetLog().SettleAgainst(ctx, games)
	if err != nil {
		return fmt.Errorf("settle bets: %w", err)
	}
	if settled > 0 {
		a.Logger.Info("bets settled", zap.Int("count", settled))
	}
	return nil
}
