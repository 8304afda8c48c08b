// Package fetch implements the rate-limited HTTP fetcher shared by every
// source adapter: bounded concurrency, a per-host politeness interval,
// retry with jittered backoff on 429/5xx, and a circuit breaker per host.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/diamondsights/yrfi-pipeline/internal/pipeline"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	Concurrency  int
	PerHostRPS   float64
	PerHostBurst int
	// MaxRetries is the number of backoff retries after the first attempt.
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Client implements pipeline.Fetcher using a Colly collector.
type Client struct {
	cfg           Config
	limiter       *HostLimiter
	breakers      *BreakerSet
	retry         *pipeline.RetryPolicy
	sem           chan struct{}
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(newHTTPTransport())

	return &Client{
		cfg:           cfg,
		limiter:       NewHostLimiter(cfg.PerHostRPS, cfg.PerHostBurst),
		breakers:      NewBreakerSet(30*time.Second, logger),
		retry:         pipeline.NewRetryPolicy(cfg.MaxRetries+1, cfg.BackoffBase, cfg.BackoffMax),
		sem:           make(chan struct{}, cfg.Concurrency),
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes one HTTP GET with politeness, retries, and breaker checks.
// The raw payload comes back unparsed; adapters own all decoding.
func (c *Client) Fetch(ctx context.Context, req pipeline.FetchRequest) (pipeline.FetchResponse, error) {
	target, err := buildURL(req.URL, req.Params)
	if err != nil {
		return pipeline.FetchResponse{}, fmt.Errorf("build url: %w", err)
	}

	release, err := c.acquireSlot(ctx)
	if err != nil {
		return pipeline.FetchResponse{}, err
	}
	defer release()

	host := hostOf(target)
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx, target); err != nil {
			return pipeline.FetchResponse{}, err
		}

		res, err := c.breakers.Execute(host, func() (interface{}, error) {
			return c.doFetch(ctx, target, req.Headers)
		})
		if err == nil {
			resp, ok := res.(pipeline.FetchResponse)
			if !ok {
				return pipeline.FetchResponse{}, fmt.Errorf("unexpected fetch result type %T", res)
			}
			resp.Retries = attempt
			fetchRequestsTotal.WithLabelValues(req.Source, statusClass(resp.StatusCode)).Inc()
			c.logger.Debug("fetch succeeded",
				zap.String("source", req.Source),
				zap.String("url", target),
				zap.Int("status", resp.StatusCode),
				zap.Int("retries", attempt),
			)
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			fetchBreakerOpenTotal.WithLabelValues(host).Inc()
			return pipeline.FetchResponse{}, &pipeline.NetworkError{URL: target, Attempts: attempt + 1, Err: err}
		}

		lastErr = err
		var netErr *pipeline.NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode > 0 {
			fetchRequestsTotal.WithLabelValues(req.Source, statusClass(netErr.StatusCode)).Inc()
		} else {
			fetchRequestsTotal.WithLabelValues(req.Source, "other").Inc()
		}

		if !c.retry.ShouldRetry(err, attempt) {
			return pipeline.FetchResponse{}, surface(target, lastErr, attempt+1)
		}

		fetchRetriesTotal.WithLabelValues(req.Source).Inc()
		c.logger.Warn("fetch retry",
			zap.String("source", req.Source),
			zap.String("url", target),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := pause(ctx, c.retry.Backoff(attempt)); err != nil {
			return pipeline.FetchResponse{}, err
		}
	}
}

func (c *Client) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case c.sem <- struct{}{}:
		return func() { <-c.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire fetch slot: %w", ctx.Err())
	}
}

func (c *Client) doFetch(ctx context.Context, target string, headers http.Header) (pipeline.FetchResponse, error) {
	var (
		result    pipeline.FetchResponse
		fetchErr  error
		errStatus int
	)
	start := time.Now()

	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = pipeline.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			errStatus = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return pipeline.FetchResponse{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		if fetchErr == nil {
			fetchErr = visitErr
		}
	}

	if fetchErr != nil {
		if errStatus > 0 {
			return pipeline.FetchResponse{}, &pipeline.NetworkError{URL: target, StatusCode: errStatus, Attempts: 1, Err: fetchErr}
		}
		return pipeline.FetchResponse{}, fmt.Errorf("visit %s: %w", target, fetchErr)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func surface(target string, err error, attempts int) error {
	var netErr *pipeline.NetworkError
	if errors.As(err, &netErr) {
		netErr.Attempts = attempts
		return netErr
	}
	return &pipeline.NetworkError{URL: target, Attempts: attempts, Err: err}
}

func buildURL(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
