// Package savant scrapes Baseball Savant player pages for pitch mix and
// first-inning splits. Profiles are keyed (player id, season); a re-scrape
// replaces the stored profile.
package savant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// Client fetches and parses one player profile per call through the shared
// rate-limited fetcher.
type Client struct {
	fetcher pipeline.Fetcher
	baseURL string
	logger  *zap.Logger
}

// NewClient builds a Savant client.
func NewClient(f pipeline.Fetcher, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("savant"),
	}
}

// Profile fetches a player's season page and parses it into a pitch profile.
// The raw page body is returned alongside for archiving.
func (c *Client) Profile(ctx context.Context, playerID int64, season int, role pipeline.PlayerRole) (pipeline.PitchProfileRecord, []byte, error) {
	statsKey := "statcast-r-pitching-mlb"
	if role == pipeline.RoleBatter {
		statsKey = "statcast-r-hitting-mlb"
	}
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "savant",
		URL:    fmt.Sprintf("%s/savant-player/%d", c.baseURL, playerID),
		Params: map[string]string{
			"stats":  statsKey,
			"season": fmt.Sprint(season),
		},
	})
	if err != nil {
		return pipeline.PitchProfileRecord{}, nil, err
	}

	rec, err := ParseProfile(playerID, season, role, resp.Body)
	if err != nil {
		return pipeline.PitchProfileRecord{}, resp.Body, err
	}
	c.logger.Debug("profile parsed",
		zap.Int64("player_id", playerID),
		zap.Int("season", season),
		zap.Int("pitch_types", len(rec.Arsenal)))
	return rec, resp.Body, nil
}
