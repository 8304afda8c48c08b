// Package rotowire scrapes the RotoWire daily-lineups page for projected and
// confirmed starting lineups. Lineups are optional context: a missing card
// never blocks the game row it would have joined to.
package rotowire

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// Client fetches the daily lineup page through the shared fetcher.
type Client struct {
	fetcher pipeline.Fetcher
	baseURL string
	logger  *zap.Logger
}

// NewClient builds a RotoWire client.
func NewClient(f pipeline.Fetcher, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("rotowire"),
	}
}

// DailyLineups fetches and parses every lineup card for one date
// (YYYY-MM-DD). Malformed cards are logged and dropped.
func (c *Client) DailyLineups(ctx context.Context, date string) ([]pipeline.LineupRecord, []byte, error) {
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "rotowire",
		URL:    c.baseURL + "/baseball/daily-lineups.php",
		Params: map[string]string{"date": date},
	})
	if err != nil {
		return nil, nil, err
	}

	recs, bad := ParseLineups(date, resp.Body)
	for _, e := range bad {
		c.logger.Warn("skipping malformed lineup card", zap.Error(e))
	}

	confirmed := 0
	for _, r := range recs {
		if r.HomeConfirmed && r.AwayConfirmed {
			confirmed++
		}
	}
	c.logger.Info("lineups fetched",
		zap.String("date", date),
		zap.Int("cards", len(recs)),
		zap.Int("fully_confirmed", confirmed),
		zap.Int("skipped", len(bad)))
	return recs, resp.Body, nil
}
