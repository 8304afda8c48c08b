package cmd

import (
	"github.com/spf13/cobra"

	"github.com/diamondsights/yrfi-pipeline/internal/app"
)

func newMergeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Join the collected datasets into the merged feature table.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if out == "" {
				out = a.DataPath(app.MergedFile)
			}
			sum, err := a.Merger().Run(cmd.Context(), out)
			if err != nil {
				return err
			}
			cmd.Printf("merged %s: %s\n", out, sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output CSV path (default: <data.dir>/"+app.MergedFile+")")
	return cmd
}
