package savant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

const profileFixture = `<html><body>
<h1 class="player-name">Zack Wheeler</h1>
<table id="pitch-arsenal"><thead><tr><th>Pitch</th><th>Usage</th><th>Velo</th><th>Whiff</th></tr></thead>
<tbody>
<tr><td>Fastball</td><td>45.2%</td><td>95.3</td><td>24.5%</td></tr>
<tr><td>Slider</td><td>37.8%</td><td>86.8</td><td>38.2%</td></tr>
<tr><td></td><td>-</td><td>-</td><td>-</td></tr>
<tr><td>Changeup</td><td>not-a-number</td><td>84.2</td><td>31.7%</td></tr>
</tbody></table>
<table id="inning-splits"><tbody>
<tr><td>1st Inning</td><td>2.85</td><td>1.12</td><td>0.218</td><td>0.645</td></tr>
<tr><td>Innings 2+</td><td>3.21</td><td>1.18</td><td>0.232</td><td>0.715</td></tr>
</tbody></table>
</body></html>`

func TestParseProfile(t *testing.T) {
	rec, err := ParseProfile(554430, 2024, pipeline.RolePitcher, []byte(profileFixture))
	require.NoError(t, err)

	assert.Equal(t, "Zack Wheeler", rec.PlayerName)
	assert.Equal(t, pipeline.ProfileKey{PlayerID: 554430, Season: 2024}, rec.Key())

	require.Len(t, rec.Arsenal, 2, "blank and unparseable rows are dropped")
	assert.Equal(t, "Fastball", rec.Arsenal[0].PitchType)
	assert.Equal(t, 45.2, rec.Arsenal[0].UsagePct)
	assert.Equal(t, 95.3, rec.Arsenal[0].AvgVelocity)
	assert.Equal(t, 38.2, rec.Arsenal[1].WhiffPct)

	require.NotNil(t, rec.FirstInning.ERA)
	assert.Equal(t, 2.85, *rec.FirstInning.ERA)
	require.NotNil(t, rec.Remainder.WHIP)
	assert.Equal(t, 1.18, *rec.Remainder.WHIP)
}

func TestParseProfileBatterBlankPitchingColumns(t *testing.T) {
	body := []byte(`<html><body>
	<table id="inning-splits"><tbody>
	<tr><td>1st Inning</td><td>-</td><td>-</td><td>0.298</td><td>0.890</td></tr>
	<tr><td>Later Innings</td><td>-</td><td>-</td><td>0.275</td><td>0.833</td></tr>
	</tbody></table>
	</body></html>`)

	rec, err := ParseProfile(660670, 2024, pipeline.RoleBatter, body)
	require.NoError(t, err)

	assert.Nil(t, rec.FirstInning.ERA)
	require.NotNil(t, rec.FirstInning.AvgAgainst)
	assert.Equal(t, 0.298, *rec.FirstInning.AvgAgainst)
	require.NotNil(t, rec.Remainder.OPS)
	assert.Equal(t, 0.833, *rec.Remainder.OPS)
	assert.Empty(t, rec.Arsenal)
}

func TestParseProfileEmptyPageIsMalformed(t *testing.T) {
	_, err := ParseProfile(1, 2024, pipeline.RolePitcher, []byte("<html><body>Maintenance</body></html>"))

	var malformed *pipeline.MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "savant", malformed.Source)
}
