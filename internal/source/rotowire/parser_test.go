package rotowire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

const lineupPageFixture = `<html><body>
<div class="lineup">
  <div class="lineup__team-name">Philadelphia Phillies</div>
  <div class="lineup__team-name">Atlanta Braves</div>
  <span class="lineup__confirmed">Confirmed</span>
  <span class="lineup__confirmed">Confirmed</span>
  <div class="lineup__pitcher"><a>Zack Wheeler</a></div>
  <div class="lineup__pitcher"><a>Spencer Schwellenbach</a></div>
  <ul class="lineup__list">
    <li><a title="Kyle Schwarber">K. Schwarber</a><span class="lineup__pos">DH</span></li>
    <li><a title="Trea Turner">T. Turner</a><span class="lineup__pos">SS</span></li>
    <li><a title="Bryce Harper">B. Harper</a><span class="lineup__pos">1B</span></li>
    <li><a title="Alec Bohm">A. Bohm</a><span class="lineup__pos">3B</span></li>
    <li><a title="Nick Castellanos">N. Castellanos</a><span class="lineup__pos">RF</span></li>
    <li><a title="Bryson Stott">B. Stott</a><span class="lineup__pos">2B</span></li>
    <li><a title="Brandon Marsh">B. Marsh</a><span class="lineup__pos">CF</span></li>
  </ul>
  <ul class="lineup__list">
    <li><a title="Ronald Acuna Jr.">R. Acuna</a><span class="lineup__pos">RF</span></li>
    <li><a title="Ozzie Albies">O. Albies</a><span class="lineup__pos">2B</span></li>
    <li><a title="Matt Olson">M. Olson</a><span class="lineup__pos">1B</span></li>
  </ul>
</div>
<div class="lineup">
  <div class="lineup__team-name">Gotham Knights</div>
  <div class="lineup__team-name">New York Yankees</div>
</div>
<div class="lineup is-tools"></div>
</body></html>`

func TestParseLineups(t *testing.T) {
	recs, bad := ParseLineups("2024-06-15", []byte(lineupPageFixture))

	require.Len(t, recs, 1)
	require.Len(t, bad, 1, "the unknown-team card fails loudly")

	rec := recs[0]
	assert.Equal(t, pipeline.GameKey("2024-06-15_ATL_PHI"), rec.Key)
	assert.Equal(t, "ATL", rec.HomeTeam)
	assert.Equal(t, "PHI", rec.AwayTeam)
	assert.Equal(t, "Zack Wheeler", rec.AwayPitcher)
	assert.Equal(t, "Spencer Schwellenbach", rec.HomePitcher)
	assert.True(t, rec.AwayConfirmed)
	assert.True(t, rec.HomeConfirmed)

	require.Len(t, rec.AwayBatters, 6, "only the top of the order is kept")
	assert.Equal(t, pipeline.LineupSlot{Order: 1, Name: "Kyle Schwarber", Position: "DH"}, rec.AwayBatters[0])
	assert.Equal(t, 6, rec.AwayBatters[5].Order)

	require.Len(t, rec.HomeBatters, 3)
	assert.Equal(t, "Ronald Acuna Jr.", rec.HomeBatters[0].Name)
}

func TestParseLineupsProjectedCard(t *testing.T) {
	body := []byte(`<div class="lineup">
	  <div class="lineup__team-name">Philadelphia Phillies</div>
	  <div class="lineup__team-name">Atlanta Braves</div>
	  <span class="lineup__confirmed">Confirmed</span>
	</div>`)

	recs, bad := ParseLineups("2024-06-15", body)
	require.Empty(t, bad)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].AwayConfirmed)
	assert.False(t, recs[0].HomeConfirmed, "one badge confirms only the away side")
}
