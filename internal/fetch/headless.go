package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrHeadlessDisabled indicates the headless fallback is switched off.
var ErrHeadlessDisabled = errors.New("headless fallback disabled")

// HeadlessRenderer fetches a page through headless Chrome. Used only as a
// fallback when a provider serves an HTML wall to plain HTTP clients (the
// sportsbook does this intermittently).
type HeadlessRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	timeout         time.Duration
	userAgent       string
	logger          *zap.Logger
}

// NewHeadlessRenderer warms up a shared browser context.
func NewHeadlessRenderer(userAgent string, timeout time.Duration, logger *zap.Logger) (*HeadlessRenderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(userAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	return &HeadlessRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		timeout:         timeout,
		userAgent:       userAgent,
		logger:          logger,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *HeadlessRenderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// Render navigates to rawURL with JavaScript enabled and returns the DOM
// snapshot.
func (r *HeadlessRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	if r == nil {
		return "", ErrHeadlessDisabled
	}
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return "", fmt.Errorf("chromedp run: %w", err)
	}
	r.logger.Debug("headless render complete", zap.String("url", rawURL), zap.Int("bytes", len(html)))
	return html, nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
