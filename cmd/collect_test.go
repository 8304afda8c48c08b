package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/analyze"
	"github.com/diamondsights/yrfi-pipeline/internal/collector"
)

func newCaptureCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	c := &cobra.Command{}
	c.SetOut(buf)
	c.SetErr(buf)
	return c, buf
}

func TestReportRunFailuresExitNonzero(t *testing.T) {
	c, buf := newCaptureCmd()
	sum := collector.Summary{RunID: "run-1", Fetched: 10, Written: 8, Skipped: 1, Failed: []string{"1003"}}

	err := reportRun(c, "games", sum, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1003")
	assert.Contains(t, buf.String(), "written=8")
}

func TestReportRunCleanRun(t *testing.T) {
	c, _ := newCaptureCmd()
	sum := collector.Summary{RunID: "run-2", Fetched: 5, Written: 5}
	assert.NoError(t, reportRun(c, "games", sum, nil))
}

func TestFormatReport(t *testing.T) {
	out := formatReport(analyze.Report{
		Games:    100,
		BaseRate: 0.52,
		ByTemp: []analyze.Bucket{
			{Label: "80-89F", Games: 40, Scored: 24},
		},
	})
	assert.Contains(t, out, "games analyzed: 100")
	assert.Contains(t, out, "YRFI base rate: 0.520")
	assert.Contains(t, out, "by temperature")
	assert.Contains(t, out, "80-89F")
}
