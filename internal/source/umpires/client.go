// Package umpires collects home-plate umpire assignments and strike-zone
// tendencies. The live scrape supplies who is behind the plate; a static
// tendency table backs the numbers when the scrape fails.
package umpires

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// Client fetches the daily assignments page.
type Client struct {
	fetcher pipeline.Fetcher
	baseURL string
	logger  *zap.Logger
}

// NewClient builds an umpire client.
func NewClient(f pipeline.Fetcher, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.Named("umpires"),
	}
}

// Assignments fetches the umpire table for one date. A network failure
// returns the error untouched so the caller can decide whether to continue
// without umpire context; the rows themselves are best-effort.
func (c *Client) Assignments(ctx context.Context, date string) ([]pipeline.UmpireRecord, []byte, error) {
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "umpires",
		URL:    c.baseURL + "/umpires",
		Params: map[string]string{"date": date},
	})
	if err != nil {
		return nil, nil, err
	}

	recs, bad := ParseAssignments(date, resp.Body)
	for _, e := range bad {
		c.logger.Warn("skipping malformed umpire row", zap.Error(e))
	}
	c.logger.Info("umpire assignments fetched",
		zap.String("date", date),
		zap.Int("games", len(recs)),
		zap.Int("skipped", len(bad)))
	return recs, resp.Body, nil
}
