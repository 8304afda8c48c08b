package draftkings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

const oddsFixture = `{
  "eventGroup": {
    "offerCategories": [
      {"name": "Game Lines", "offerSubcategoryDescriptors": []},
      {
        "name": "1st Inning Props",
        "offerSubcategoryDescriptors": [
          {
            "offerSubcategory": {
              "offers": [
                [
                  {
                    "label": "PHI @ ATL",
                    "outcomes": [
                      {"label": "Yes", "oddsAmerican": "-115"},
                      {"label": "No", "oddsAmerican": "-105"}
                    ]
                  },
                  {
                    "label": "NYY @ BOS",
                    "outcomes": [
                      {"label": "Yes", "oddsAmerican": "+120"}
                    ]
                  },
                  {
                    "label": "Narnia @ BOS",
                    "outcomes": [
                      {"label": "Yes", "oddsAmerican": "-110"},
                      {"label": "No", "oddsAmerican": "-110"}
                    ]
                  }
                ]
              ]
            }
          }
        ]
      }
    ]
  }
}`

func TestParseOdds(t *testing.T) {
	recs, bad := ParseOdds("2024-06-15", []byte(oddsFixture))

	require.Len(t, recs, 1)
	assert.Len(t, bad, 2, "one-sided offer and unknown team both fail")

	rec := recs[0]
	assert.Equal(t, pipeline.GameKey("2024-06-15_ATL_PHI"), rec.Key)
	assert.Equal(t, -115, rec.YRFIOdds)
	assert.Equal(t, -105, rec.NRFIOdds)
	assert.InDelta(t, 115.0/215.0, rec.YRFIImplied, 1e-9)
	assert.InDelta(t, 105.0/205.0, rec.NRFIImplied, 1e-9)
}

func TestImpliedProbability(t *testing.T) {
	cases := []struct {
		odds int
		want float64
	}{
		{-115, 115.0 / 215.0},
		{+120, 100.0 / 220.0},
		{-200, 200.0 / 300.0},
		{+100, 0.5},
	}
	for _, tc := range cases {
		got := ImpliedProbability(tc.odds)
		assert.InDelta(t, tc.want, got, 1e-9, "odds %d", tc.odds)
	}
}

func TestTrackMovement(t *testing.T) {
	first := TrackMovement(nil, pipeline.OddsRecord{YRFIOdds: -110})
	require.NotNil(t, first.OpeningYRFI)
	assert.Equal(t, -110, *first.OpeningYRFI)
	assert.Equal(t, "none", first.Movement)
	assert.Zero(t, first.MovementCents)

	// Line shortens toward YRFI: opening price sticks, drift is flagged.
	second := TrackMovement(&first, pipeline.OddsRecord{YRFIOdds: -120})
	assert.Equal(t, -110, *second.OpeningYRFI)
	assert.Equal(t, "YRFI", second.Movement)
	assert.Equal(t, 10, second.MovementCents)

	third := TrackMovement(&second, pipeline.OddsRecord{YRFIOdds: -108})
	assert.Equal(t, -110, *third.OpeningYRFI)
	assert.Equal(t, "none", third.Movement, "small wobble stays inside the threshold")
}
