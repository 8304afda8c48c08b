// Package cmd wires the yrfi CLI.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diamondsights/yrfi-pipeline/internal/app"
	"github.com/diamondsights/yrfi-pipeline/internal/config"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is a variable so tests can swap in a prebuilt container.
var newApp = func(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.New(ctx, cfg)
}

func appFrom(cmd *cobra.Command) *app.App {
	a, _ := cmd.Context().Value(appKey).(*app.App)
	return a
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yrfi",
		Short: "Collects MLB first-inning run data and maintains the YRFI dataset.",
		Long: `yrfi pulls game results, pitcher profiles, lineups, umpire assignments,
and first-inning odds from their upstream sources, upserts them into CSV
datasets (optionally mirrored to Postgres), and merges them into a single
feature table for YRFI/NRFI analysis.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a := appFrom(cmd); a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults plus YRFI_* env)")

	cmd.AddCommand(
		newCollectCmd(),
		newMergeCmd(),
		newDailyCmd(),
		newAnalyzeCmd(),
		newBetsCmd(),
	)
	return cmd
}

// Execute runs the CLI and exits nonzero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
