package statsapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
	"github.com/diamondsights/yrfi-pipeline/internal/teams"
)

// ScheduledGame identifies a regular-season game found in the schedule
// endpoint. Team names are already canonical abbreviations.
type ScheduledGame struct {
	GamePk   int64
	Date     string
	HomeTeam string
	AwayTeam string
	Venue    string
	Status   string
}

// Final reports whether the game has been played to completion and can be
// turned into a result row.
func (g ScheduledGame) Final() bool {
	return strings.EqualFold(g.Status, "Final") || strings.EqualFold(g.Status, "Game Over")
}

// ParseSchedule decodes a schedule payload into scheduled games. Games that
// cannot be keyed (missing date, unknown team) are dropped and reported as
// malformed-record errors so the caller can log them without aborting the run.
func ParseSchedule(body []byte) ([]ScheduledGame, []error) {
	var resp scheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, []error{&pipeline.MalformedRecordError{
			Source: "statsapi", ID: "schedule", Field: "body", Err: err,
		}}
	}

	var games []ScheduledGame
	var bad []error
	for _, date := range resp.Dates {
		for _, g := range date.Games {
			if g.GameType != "R" {
				continue
			}
			sg, err := scheduledFromWire(date.Date, g)
			if err != nil {
				bad = append(bad, err)
				continue
			}
			games = append(games, sg)
		}
	}
	return games, bad
}

func scheduledFromWire(date string, g scheduleGame) (ScheduledGame, error) {
	recordID := strconv.FormatInt(g.GamePk, 10)
	if g.GamePk == 0 {
		return ScheduledGame{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "gamePk",
			Err: fmt.Errorf("missing game id"),
		}
	}
	if date == "" {
		return ScheduledGame{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "date",
			Err: fmt.Errorf("missing game date"),
		}
	}
	home, err := teams.Resolve(g.Teams.Home.Team.Name)
	if err != nil {
		return ScheduledGame{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "teams.home", Err: err,
		}
	}
	away, err := teams.Resolve(g.Teams.Away.Team.Name)
	if err != nil {
		return ScheduledGame{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "teams.away", Err: err,
		}
	}
	return ScheduledGame{
		GamePk:   g.GamePk,
		Date:     date,
		HomeTeam: home,
		AwayTeam: away,
		Venue:    g.Venue.Name,
		Status:   g.Status.DetailedState,
	}, nil
}

// ParseGameFeed decodes a live-feed payload into a game record. The
// first-inning flag is always recomputed from the inning run counts, never
// trusted from upstream.
func ParseGameFeed(gamePk int64, body []byte) (pipeline.GameRecord, error) {
	recordID := strconv.FormatInt(gamePk, 10)
	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "body", Err: err,
		}
	}

	rec := pipeline.GameRecord{
		GamePk: gamePk,
		Date:   resp.GameData.Datetime.OfficialDate,
		Venue:  resp.GameData.Venue.Name,
	}

	var err error
	if rec.HomeTeam, err = teams.Resolve(resp.GameData.Teams.Home.Name); err != nil {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "teams.home", Err: err,
		}
	}
	if rec.AwayTeam, err = teams.Resolve(resp.GameData.Teams.Away.Name); err != nil {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "teams.away", Err: err,
		}
	}

	if len(resp.LiveData.Linescore.Innings) == 0 {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "linescore.innings",
			Err: fmt.Errorf("no innings in linescore"),
		}
	}
	first := resp.LiveData.Linescore.Innings[0]
	if first.Home.Runs == nil || first.Away.Runs == nil {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "linescore.innings[0]",
			Err: fmt.Errorf("first inning has no run totals"),
		}
	}
	rec.HomeRunsInning1 = *first.Home.Runs
	rec.AwayRunsInning1 = *first.Away.Runs
	rec.RecomputeFirstInning()

	rec.FinalScoreHome = resp.LiveData.Linescore.Teams.Home.Runs
	rec.FinalScoreAway = resp.LiveData.Linescore.Teams.Away.Runs

	rec.HomePitcher = starterName(resp.LiveData.Boxscore.Teams.Home)
	rec.AwayPitcher = starterName(resp.LiveData.Boxscore.Teams.Away)

	parseWeather(&rec, resp.GameData.Weather.Temp, resp.GameData.Weather.Wind, resp.GameData.Weather.Condition)

	if err := rec.Validate(); err != nil {
		return pipeline.GameRecord{}, &pipeline.MalformedRecordError{
			Source: "statsapi", ID: recordID, Field: "record", Err: err,
		}
	}
	return rec, nil
}

// starterName resolves the first pitcher listed in the boxscore, which the
// feed orders by appearance.
func starterName(t boxscoreTeam) string {
	if len(t.Pitchers) == 0 {
		return ""
	}
	key := "ID" + strconv.FormatInt(t.Pitchers[0], 10)
	if p, ok := t.Players[key]; ok {
		return p.Person.FullName
	}
	return ""
}

// parseWeather fills the optional weather columns. The feed reports
// temperature as a bare string ("74") and wind as "10 mph, Out To CF";
// unparseable values leave the columns empty rather than failing the record.
func parseWeather(rec *pipeline.GameRecord, temp, wind, condition string) {
	rec.Condition = condition
	if temp != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(temp), 64); err == nil {
			rec.Temperature = &v
		}
	}
	if wind == "" {
		return
	}
	speed, dir, ok := splitWind(wind)
	if !ok {
		return
	}
	rec.WindSpeed = &speed
	rec.WindDirection = dir
}

func splitWind(wind string) (float64, string, bool) {
	parts := strings.SplitN(wind, ",", 2)
	speedPart := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[0]), "mph"))
	speed, err := strconv.ParseFloat(strings.TrimSpace(speedPart), 64)
	if err != nil {
		return 0, "", false
	}
	dir := ""
	if len(parts) == 2 {
		dir = strings.TrimSpace(parts[1])
	}
	return speed, dir, true
}
