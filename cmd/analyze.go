package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diamondsights/yrfi-pipeline/internal/analyze"
)

func newAnalyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Summarize first-inning scoring rates over the merged dataset.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			rows, _, err := a.Merger().Merge(cmd.Context())
			if err != nil {
				return err
			}
			report := analyze.Run(rows)
			cmd.Print(formatReport(report))
			return nil
		},
	}
}

func formatReport(r analyze.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "games analyzed: %d\n", r.Games)
	fmt.Fprintf(&b, "YRFI base rate: %.3f\n", r.BaseRate)
	fmt.Fprintf(&b, "avg first-inning runs: home %.2f, away %.2f\n", r.HomeFirstAvg, r.AwayFirstAvg)
	fmt.Fprintf(&b, "correlations: temperature %+.3f, wind %+.3f\n", r.TempCorr, r.WindCorr)

	writeBuckets := func(title string, buckets []analyze.Bucket) {
		if len(buckets) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, bk := range buckets {
			fmt.Fprintf(&b, "  %s\n", bk)
		}
	}
	writeBuckets("by temperature", r.ByTemp)
	writeBuckets("by wind", r.ByWind)
	writeBuckets("by venue", r.ByVenue)
	writeBuckets("by umpire tendency", r.ByUmpire)

	if len(r.TeamOffense) > 0 {
		fmt.Fprintf(&b, "first-inning offense:\n")
		for _, line := range r.TeamOffense {
			fmt.Fprintf(&b, "  %s: %.2f runs/game over %d games\n", line.Team, line.Avg(), line.Games)
		}
	}
	return b.String()
}
