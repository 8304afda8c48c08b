package umpires

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

func TestLookupKnownAndUnknown(t *testing.T) {
	kulpa, known := Lookup("Ron Kulpa")
	require.True(t, known)
	assert.Equal(t, 0.7, kulpa.ZoneScore)
	assert.Equal(t, "pitcher", kulpa.Tendency)
	assert.InDelta(t, -0.042, kulpa.YRFIAdjustment(), 1e-9)

	rookie, known := Lookup("Pat Hoberg Jr.")
	assert.False(t, known)
	assert.Equal(t, Stats{Tendency: "neutral"}, rookie)
	assert.Zero(t, rookie.YRFIAdjustment())
}

const assignmentsFixture = `<html><body>
<table class="umpire-assignments">
<tr><th>Game</th><th>Home Plate</th></tr>
<tr><td>PHI @ ATL</td><td>Ron Kulpa</td></tr>
<tr><td>NYY @ BOS</td><td>Some Rookie</td></tr>
<tr><td>XXX @ ATL</td><td>Laz Diaz</td></tr>
<tr><td></td><td>Bill Miller</td></tr>
</table>
</body></html>`

func TestParseAssignments(t *testing.T) {
	recs, bad := ParseAssignments("2024-06-15", []byte(assignmentsFixture))

	require.Len(t, recs, 2)
	assert.Len(t, bad, 2, "unknown matchup team and blank matchup both fail")

	assert.Equal(t, pipeline.GameKey("2024-06-15_ATL_PHI"), recs[0].Key)
	assert.Equal(t, "Ron Kulpa", recs[0].Name)
	assert.Equal(t, -0.42, recs[0].RunImpact)

	assert.Equal(t, pipeline.GameKey("2024-06-15_BOS_NYY"), recs[1].Key)
	assert.Equal(t, "neutral", recs[1].Tendency, "rookie umpires get league-average numbers")
	assert.Zero(t, recs[1].ZoneScore)
}
