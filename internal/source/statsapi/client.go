// Package statsapi pulls schedules and completed-game feeds from the MLB
// Stats API. It is the anchor source: every other adapter's output joins
// onto the games found here.
package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// Client wraps the two Stats API endpoints the pipeline reads: the season
// schedule and the per-game live feed.
type Client struct {
	fetcher pipeline.Fetcher
	baseURL string
	logger  *zap.Logger
}

// NewClient builds a client on top of the shared rate-limited fetcher.
func NewClient(f pipeline.Fetcher, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("statsapi"),
	}
}

// Schedule returns the regular-season games for a season, optionally limited
// to one team's canonical StatsAPI id (0 means all teams).
func (c *Client) Schedule(ctx context.Context, season int, teamID int) ([]ScheduledGame, error) {
	params := map[string]string{
		"sportId":   "1",
		"gameType":  "R",
		"startDate": fmt.Sprintf("%d-03-15", season),
		"endDate":   fmt.Sprintf("%d-11-10", season),
	}
	if teamID > 0 {
		params["teamId"] = strconv.Itoa(teamID)
	}
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "statsapi",
		URL:    c.baseURL + "/v1/schedule",
		Params: params,
	})
	if err != nil {
		return nil, err
	}

	games, bad := ParseSchedule(resp.Body)
	for _, e := range bad {
		c.logger.Warn("skipping malformed schedule entry", zap.Error(e))
	}
	c.logger.Info("schedule fetched",
		zap.Int("season", season),
		zap.Int("games", len(games)),
		zap.Int("skipped", len(bad)))
	return games, nil
}

// Game fetches the live feed for one game and turns it into a result record.
func (c *Client) Game(ctx context.Context, gamePk int64) (pipeline.GameRecord, []byte, error) {
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "statsapi",
		URL:    fmt.Sprintf("%s/v1.1/game/%d/feed/live", c.baseURL, gamePk),
	})
	if err != nil {
		return pipeline.GameRecord{}, nil, err
	}
	rec, err := ParseGameFeed(gamePk, resp.Body)
	if err != nil {
		return pipeline.GameRecord{}, resp.Body, err
	}
	return rec, resp.Body, nil
}

// LookupPlayer resolves a player name to the StatsAPI person id. Used to key
// Savant profile fetches off starter names found in game feeds.
func (c *Client) LookupPlayer(ctx context.Context, name string) (int64, error) {
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "statsapi",
		URL:    c.baseURL + "/v1/people/search",
		Params: map[string]string{"names": name},
	})
	if err != nil {
		return 0, err
	}
	var out peopleSearchResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return 0, &pipeline.MalformedRecordError{Source: "statsapi", ID: name, Field: "body", Err: err}
	}
	for _, p := range out.People {
		if strings.EqualFold(p.FullName, name) {
			return p.ID, nil
		}
	}
	if len(out.People) == 1 {
		return out.People[0].ID, nil
	}
	return 0, &pipeline.UnknownEntityError{Kind: "player", Name: name}
}
