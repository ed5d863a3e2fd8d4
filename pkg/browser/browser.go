// Package browser drives a headless Chrome instance through the DevTools
// protocol. Each Session owns its own browser process.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/go-scripts/reviews/internal/errs"
)

// Launcher starts browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one browser with one tab. Close must be safe to call more
// than once.
type Session interface {
	// Navigate loads url and waits for the body to be ready, failing with
	// *errs.NavigationTimeoutError when timeout elapses first.
	Navigate(url string, timeout time.Duration) error
	// Snapshot returns the serialized DOM as it currently stands.
	Snapshot() (string, error)
	Close() error
}

// Options configure the Chrome launcher
type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	// SettleDelay is waited after navigation so client-side scripts can
	// render late content.
	SettleDelay time.Duration
}

// DefaultOptions mirror the flags the service runs with in production
func DefaultOptions() Options {
	return Options{
		Headless:    true,
		SettleDelay: 2 * time.Second,
	}
}

// Chrome launches local Chrome or Chromium processes
type Chrome struct {
	opts Options
}

// NewChrome creates a launcher
func NewChrome(opts Options) *Chrome {
	return &Chrome{opts: opts}
}

// Launch starts a browser bound to ctx. Cancelling ctx tears the browser
// down as well.
func (c *Chrome) Launch(ctx context.Context) (Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	if c.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the process and opens the first tab.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, &errs.ExtractionError{Stage: "browser launch", Err: err}
	}

	return &chromeSession{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		settle:      c.opts.SettleDelay,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	settle      time.Duration
	closeOnce   sync.Once
	closeErr    error
}

func (s *chromeSession) Navigate(url string, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil {
			return &errs.NavigationTimeoutError{URL: url, Timeout: timeout, Err: err}
		}
		return &errs.ExtractionError{Stage: "navigation", Err: err}
	}

	if s.settle > 0 {
		if err := chromedp.Run(s.ctx, chromedp.Sleep(s.settle)); err != nil {
			return &errs.ExtractionError{Stage: "navigation", Err: err}
		}
	}
	return nil
}

func (s *chromeSession) Snapshot() (string, error) {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("error getting HTML: %w", err)
	}
	return html, nil
}

// Close shuts the browser gracefully, then releases the allocator.
func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("error closing browser: %w", err)
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}
