package pipeline

import (
	"fmt"
	"net/http"
	"time"
)

// GameKey identifies a game across all sources: date plus canonical team ids.
type GameKey string

// MakeGameKey builds the composite join key from a date (YYYY-MM-DD) and the
// canonical home/away team ids.
func MakeGameKey(date, homeID, awayID string) GameKey {
	return GameKey(fmt.Sprintf("%s_%s_%s", date, homeID, awayID))
}

// GameRecord is one completed game. Immutable once written; keyed by the
// source game id (MLB gamePk) with the composite (date, home, away) key used
// for joins.
type GameRecord struct {
	GamePk        int64    `json:"game_pk"`
	Date          string   `json:"date"`
	HomeTeam      string   `json:"home_team"`
	AwayTeam      string   `json:"away_team"`
	Venue         string   `json:"venue"`
	HomePitcher   string   `json:"home_pitcher"`
	AwayPitcher   string   `json:"away_pitcher"`
	Temperature   *float64 `json:"temperature,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection string   `json:"wind_direction,omitempty"`
	Condition     string   `json:"condition,omitempty"`

	HomeRunsInning1   int  `json:"first_inning_runs_home"`
	AwayRunsInning1   int  `json:"first_inning_runs_away"`
	FirstInningScored bool `json:"first_inning_run_scored"`

	FinalScoreHome *int `json:"final_score_home,omitempty"`
	FinalScoreAway *int `json:"final_score_away,omitempty"`
}

// Key returns the composite join key for the game.
func (r GameRecord) Key() GameKey {
	return MakeGameKey(r.Date, r.HomeTeam, r.AwayTeam)
}

// RecomputeFirstInning derives the scored flag from the inning-one run
// counts. Externally supplied flags are never trusted.
func (r *GameRecord) RecomputeFirstInning() {
	r.FirstInningScored = r.HomeRunsInning1+r.AwayRunsInning1 > 0
}

// Validate checks the identifying fields every downstream consumer relies on.
func (r GameRecord) Validate() error {
	if r.Date == "" {
		return &MalformedRecordError{Source: "statsapi", ID: fmt.Sprint(r.GamePk), Field: "date"}
	}
	if r.HomeTeam == "" || r.AwayTeam == "" {
		return &MalformedRecordError{Source: "statsapi", ID: fmt.Sprint(r.GamePk), Field: "team"}
	}
	return nil
}

// PlayerRole distinguishes the two pitch-profile shapes.
type PlayerRole string

// Roles carried on PitchProfileRecord.
const (
	RolePitcher PlayerRole = "pitcher"
	RoleBatter  PlayerRole = "batter"
)

// PitchTypeStats is one entry in a player's pitch mix.
type PitchTypeStats struct {
	PitchType   string  `json:"pitch_type"`
	UsagePct    float64 `json:"usage_pct"`
	AvgVelocity float64 `json:"avg_velo"`
	WhiffPct    float64 `json:"whiff_pct"`
}

// InningLine holds a player's line for one inning group.
type InningLine struct {
	ERA        *float64 `json:"era,omitempty"`
	WHIP       *float64 `json:"whip,omitempty"`
	AvgAgainst *float64 `json:"avg_against,omitempty"`
	OPS        *float64 `json:"ops,omitempty"`
}

// PitchProfileRecord is a pitcher's or batter's season profile, split into
// first inning versus the rest. Keyed by (player id, season); a re-scrape
// replaces the previous profile.
type PitchProfileRecord struct {
	PlayerID    int64            `json:"player_id"`
	PlayerName  string           `json:"player_name"`
	Role        PlayerRole       `json:"role"`
	Season      int              `json:"season"`
	Arsenal     []PitchTypeStats `json:"arsenal"`
	FirstInning InningLine       `json:"first_inning"`
	Remainder   InningLine       `json:"later_innings"`
}

// ProfileKey is the natural key used for pitch-profile dedup.
type ProfileKey struct {
	PlayerID int64
	Season   int
}

// Key returns the (player id, season) dedup key.
func (r PitchProfileRecord) Key() ProfileKey {
	return ProfileKey{PlayerID: r.PlayerID, Season: r.Season}
}

// LineupSlot is one batter in a confirmed or projected lineup.
type LineupSlot struct {
	Order    int    `json:"order"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// LineupRecord holds both teams' top of the order for one game. Optional and
// independently refreshable.
type LineupRecord struct {
	Key           GameKey      `json:"game_key"`
	Date          string       `json:"date"`
	HomeTeam      string       `json:"home_team"`
	AwayTeam      string       `json:"away_team"`
	HomeConfirmed bool         `json:"home_confirmed"`
	AwayConfirmed bool         `json:"away_confirmed"`
	HomePitcher   string       `json:"home_pitcher"`
	AwayPitcher   string       `json:"away_pitcher"`
	HomeBatters   []LineupSlot `json:"home_batters"`
	AwayBatters   []LineupSlot `json:"away_batters"`
}

// UmpireRecord captures the home-plate umpire's tendencies for one game.
// ZoneScore runs -1 (hitter friendly) to +1 (pitcher friendly).
type UmpireRecord struct {
	Key       GameKey `json:"game_key"`
	Name      string  `json:"umpire"`
	ZoneScore float64 `json:"zone_score"`
	RunImpact float64 `json:"run_impact"`
	Tendency  string  `json:"tendency"`
}

// OddsRecord holds the YRFI/NRFI prices for one game, American odds.
type OddsRecord struct {
	Key           GameKey `json:"game_key"`
	YRFIOdds      int     `json:"yrfi_odds"`
	NRFIOdds      int     `json:"nrfi_odds"`
	YRFIImplied   float64 `json:"yrfi_implied_prob"`
	NRFIImplied   float64 `json:"nrfi_implied_prob"`
	OpeningYRFI   *int    `json:"opening_yrfi,omitempty"`
	Movement      string  `json:"line_movement,omitempty"`
	MovementCents int     `json:"movement_cents"`
}

// MergedFeatureRow is one game with every optional source left-joined on.
// Nil pointers mark sources that never arrived; rows are never dropped for
// a missing source.
type MergedFeatureRow struct {
	Game   GameRecord
	Lineup *LineupRecord
	Umpire *UmpireRecord
	Odds   *OddsRecord

	// Season pitch profiles for the two starters, when collected.
	HomePitcherProfile *PitchProfileRecord
	AwayPitcherProfile *PitchProfileRecord
}

// FetchRequest describes one HTTP fetch handed to the rate-limited fetcher.
type FetchRequest struct {
	// Source labels the adapter issuing the request (metrics, logs).
	Source  string
	URL     string
	Params  map[string]string
	Headers http.Header
}

// FetchResponse is the raw payload returned to the adapter, unparsed.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	// Retries counts the backoff attempts consumed before success.
	Retries int
}
