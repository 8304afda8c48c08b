package statsapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

const scheduleFixture = `{
  "dates": [
    {
      "date": "2024-06-15",
      "games": [
        {
          "gamePk": 745804,
          "gameType": "R",
          "status": {"detailedState": "Final"},
          "teams": {
            "home": {"team": {"id": 144, "name": "Atlanta Braves"}},
            "away": {"team": {"id": 143, "name": "Philadelphia Phillies"}}
          },
          "venue": {"name": "Truist Park"}
        },
        {
          "gamePk": 745805,
          "gameType": "S",
          "status": {"detailedState": "Final"},
          "teams": {
            "home": {"team": {"id": 144, "name": "Atlanta Braves"}},
            "away": {"team": {"id": 143, "name": "Philadelphia Phillies"}}
          },
          "venue": {"name": "Truist Park"}
        },
        {
          "gamePk": 745806,
          "gameType": "R",
          "status": {"detailedState": "Scheduled"},
          "teams": {
            "home": {"team": {"id": 0, "name": "Moon Base Nine"}},
            "away": {"team": {"id": 143, "name": "Philadelphia Phillies"}}
          },
          "venue": {"name": "Crater Field"}
        }
      ]
    }
  ]
}`

func TestParseScheduleFiltersAndResolves(t *testing.T) {
	games, bad := ParseSchedule([]byte(scheduleFixture))

	require.Len(t, games, 1, "spring-training and unknown-team entries must not survive")
	g := games[0]
	assert.Equal(t, int64(745804), g.GamePk)
	assert.Equal(t, "2024-06-15", g.Date)
	assert.Equal(t, "ATL", g.HomeTeam)
	assert.Equal(t, "PHI", g.AwayTeam)
	assert.True(t, g.Final())

	require.Len(t, bad, 1)
	var malformed *pipeline.MalformedRecordError
	require.True(t, errors.As(bad[0], &malformed))
	assert.Equal(t, "745806", malformed.ID)
}

const feedFixture = `{
  "gameData": {
    "datetime": {"officialDate": "2024-06-15"},
    "venue": {"name": "Truist Park"},
    "weather": {"temp": "88", "wind": "7 mph, Out To LF", "condition": "Partly Cloudy"},
    "teams": {
      "home": {"name": "Atlanta Braves"},
      "away": {"name": "Philadelphia Phillies"}
    }
  },
  "liveData": {
    "linescore": {
      "innings": [
        {"home": {"runs": 2}, "away": {"runs": 0}},
        {"home": {"runs": 0}, "away": {"runs": 1}}
      ],
      "teams": {"home": {"runs": 5}, "away": {"runs": 3}}
    },
    "boxscore": {
      "teams": {
        "home": {
          "pitchers": [675911, 621345],
          "players": {"ID675911": {"person": {"fullName": "Spencer Schwellenbach"}}}
        },
        "away": {
          "pitchers": [605400],
          "players": {"ID605400": {"person": {"fullName": "Aaron Nola"}}}
        }
      }
    }
  }
}`

func TestParseGameFeed(t *testing.T) {
	rec, err := ParseGameFeed(745804, []byte(feedFixture))
	require.NoError(t, err)

	assert.Equal(t, "2024-06-15", rec.Date)
	assert.Equal(t, "ATL", rec.HomeTeam)
	assert.Equal(t, "PHI", rec.AwayTeam)
	assert.Equal(t, 2, rec.HomeRunsInning1)
	assert.Equal(t, 0, rec.AwayRunsInning1)
	assert.True(t, rec.FirstInningScored, "the scored flag comes from the inning counts")
	assert.Equal(t, "Spencer Schwellenbach", rec.HomePitcher)
	assert.Equal(t, "Aaron Nola", rec.AwayPitcher)

	require.NotNil(t, rec.Temperature)
	assert.Equal(t, 88.0, *rec.Temperature)
	require.NotNil(t, rec.WindSpeed)
	assert.Equal(t, 7.0, *rec.WindSpeed)
	assert.Equal(t, "Out To LF", rec.WindDirection)
	require.NotNil(t, rec.FinalScoreHome)
	assert.Equal(t, 5, *rec.FinalScoreHome)

	assert.Equal(t, pipeline.GameKey("2024-06-15_ATL_PHI"), rec.Key())
}

func TestParseGameFeedNoFirstInningRuns(t *testing.T) {
	body := []byte(`{
	  "gameData": {
	    "datetime": {"officialDate": "2024-06-15"},
	    "teams": {"home": {"name": "Atlanta Braves"}, "away": {"name": "Philadelphia Phillies"}}
	  },
	  "liveData": {"linescore": {"innings": [{"home": {}, "away": {}}]}}
	}`)

	_, err := ParseGameFeed(99, body)
	var malformed *pipeline.MalformedRecordError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "linescore.innings[0]", malformed.Field)
	assert.Equal(t, "99", malformed.ID, "the error names the gamePk it came from")
}

func TestSplitWind(t *testing.T) {
	cases := []struct {
		in    string
		speed float64
		dir   string
		ok    bool
	}{
		{"10 mph, Out To CF", 10, "Out To CF", true},
		{"0 mph, None", 0, "None", true},
		{"12 mph", 12, "", true},
		{"calm", 0, "", false},
	}
	for _, tc := range cases {
		speed, dir, ok := splitWind(tc.in)
		if ok != tc.ok || speed != tc.speed || dir != tc.dir {
			t.Errorf("splitWind(%q) = %v %q %v, want %v %q %v", tc.in, speed, dir, ok, tc.speed, tc.dir, tc.ok)
		}
	}
}
