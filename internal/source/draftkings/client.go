// Package draftkings pulls YRFI/NRFI prices from the sportsbook's event-group
// API. The endpoint sometimes answers HTML challenge pages instead of JSON;
// a headless browser retry recovers the payload when one is configured.
package draftkings

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

var errMissingSide = errors.New("offer does not price both YRFI and NRFI")

// mlbFirstInningPath is the league/category/subcategory route for MLB
// first-inning run markets.
const mlbFirstInningPath = "/leagues/84240/categories/583/subcategories/13045"

// Renderer loads a URL in a real browser and returns the rendered document.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client fetches and parses the odds feed.
type Client struct {
	fetcher  pipeline.Fetcher
	renderer Renderer
	baseURL  string
	logger   *zap.Logger
}

// NewClient builds an odds client. renderer may be nil, which disables the
// headless fallback.
func NewClient(f pipeline.Fetcher, renderer Renderer, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		fetcher:  f,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.Named("draftkings"),
	}
}

// Odds fetches first-inning prices for one date. When the API answers with an
// HTML wall instead of JSON, the same URL is re-fetched through the headless
// browser and the JSON is lifted out of the rendered document.
func (c *Client) Odds(ctx context.Context, date string) ([]pipeline.OddsRecord, []byte, error) {
	url := c.baseURL + mlbFirstInningPath
	resp, err := c.fetcher.Fetch(ctx, pipeline.FetchRequest{
		Source: "draftkings",
		URL:    url,
		Headers: map[string][]string{
			"Accept": {"application/json"},
		},
	})
	if err != nil {
		return nil, nil, err
	}

	body := resp.Body
	if looksLikeHTML(body) {
		body, err = c.renderJSON(ctx, url)
		if err != nil {
			return nil, resp.Body, err
		}
	}

	recs, bad := ParseOdds(date, body)
	for _, e := range bad {
		c.logger.Warn("skipping malformed odds offer", zap.Error(e))
	}
	c.logger.Info("odds fetched",
		zap.String("date", date),
		zap.Int("games", len(recs)),
		zap.Int("skipped", len(bad)))
	return recs, body, nil
}

// renderJSON drives the headless browser at the API URL; browsers wrap bare
// JSON responses in a <pre> element.
func (c *Client) renderJSON(ctx context.Context, url string) ([]byte, error) {
	if c.renderer == nil {
		return nil, &pipeline.NetworkError{
			URL: url, Err: errors.New("got HTML from odds API and no headless renderer configured"),
		}
	}
	c.logger.Info("odds API returned HTML, retrying through headless browser", zap.String("url", url))

	html, err := c.renderer.Render(ctx, url)
	if err != nil {
		return nil, &pipeline.NetworkError{URL: url, Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &pipeline.MalformedRecordError{Source: "draftkings", ID: url, Field: "rendered", Err: err}
	}
	text := strings.TrimSpace(doc.Find("pre").First().Text())
	if text == "" {
		text = strings.TrimSpace(doc.Find("body").Text())
	}
	if !strings.HasPrefix(text, "{") {
		return nil, &pipeline.MalformedRecordError{
			Source: "draftkings", ID: url, Field: "rendered",
			Err: errors.New("rendered page contains no JSON payload"),
		}
	}
	return []byte(text), nil
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '<'
}
