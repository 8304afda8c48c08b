package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diamondsights/yrfi-pipeline/internal/collector"
	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

func newCollectCmd() *cobra.Command {
	var (
		season   int
		team     string
		date     string
		maxGames int
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect final game results from the MLB Stats API.",
		Long: `collect walks the season schedule and collects every final game into the
games dataset. The profiles and daily subcommands collect the other sources.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			sum, err := a.Collector().CollectGames(cmd.Context(), season, team, date, maxGames)
			return reportRun(cmd, "games", sum, err)
		},
	}
	cmd.Flags().IntVar(&season, "season", time.Now().Year(), "season to collect")
	cmd.Flags().StringVar(&team, "team", "", "limit to one club (abbreviation or name)")
	cmd.Flags().StringVar(&date, "date", "", "limit to one day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&maxGames, "max-games", 0, "cap the number of games collected (0 = no cap)")

	cmd.AddCommand(newCollectProfilesCmd(), newCollectDailyCmd())
	return cmd
}

func newCollectProfilesCmd() *cobra.Command {
	var (
		season int
		role   string
	)
	cmd := &cobra.Command{
		Use:   "profiles NAME [NAME...]",
		Short: "Collect Baseball Savant profiles for the named players.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			var playerRole pipeline.PlayerRole
			switch strings.ToLower(role) {
			case "pitcher":
				playerRole = pipeline.RolePitcher
			case "batter":
				playerRole = pipeline.RoleBatter
			default:
				return fmt.Errorf("unknown role %q (want pitcher or batter)", role)
			}
			sum, err := a.Collector().CollectProfiles(cmd.Context(), season, args, playerRole)
			return reportRun(cmd, "profiles", sum, err)
		},
	}
	cmd.Flags().IntVar(&season, "season", time.Now().Year(), "season to collect")
	cmd.Flags().StringVar(&role, "role", "pitcher", "profile role: pitcher or batter")
	return cmd
}

func newCollectDailyCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Collect lineups, umpire assignments, and odds for one slate.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			sum, err := a.Collector().CollectDaily(cmd.Context(), date)
			return reportRun(cmd, "daily", sum, err)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "slate date (YYYY-MM-DD, default today)")
	return cmd
}

// reportRun prints the run summary and turns unrecovered failures into a
// nonzero exit.
func reportRun(cmd *cobra.Command, what string, sum collector.Summary, err error) error {
	cmd.Printf("%s run %s: %s\n", what, sum.RunID, sum)
	if err != nil {
		return err
	}
	if len(sum.Failed) > 0 {
		return fmt.Errorf("%d record(s) failed: %s", len(sum.Failed), strings.Join(sum.Failed, ", "))
	}
	return nil
}
