// Package pipeline runs one review extraction from browser launch to the
// normalized result, reporting progress as it goes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-scripts/reviews/internal/analyzer"
	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/internal/extractor"
	"github.com/go-scripts/reviews/internal/inference"
	"github.com/go-scripts/reviews/internal/metrics"
	"github.com/go-scripts/reviews/pkg/browser"
	"github.com/go-scripts/reviews/pkg/common"
)

// DefaultNavigationTimeout bounds page loads
const DefaultNavigationTimeout = 30 * time.Second

// Option configures a Pipeline
type Option func(*Pipeline)

func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithNavigationTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.navTimeout = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// Pipeline is safe for concurrent use; every run launches its own browser.
type Pipeline struct {
	launcher   browser.Launcher
	inferrer   inference.Inferrer
	logger     *log.Logger
	navTimeout time.Duration
	metrics    *metrics.Metrics
}

func New(launcher browser.Launcher, inferrer inference.Inferrer, opts ...Option) *Pipeline {
	p := &Pipeline{
		launcher:   launcher,
		inferrer:   inferrer,
		logger:     log.Default(),
		navTimeout: DefaultNavigationTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run extracts in the background. The channel yields status events, then
// exactly one complete or error event, then closes. Cancelling ctx aborts
// the browser and model work; events nobody is left to read are dropped.
func (p *Pipeline) Run(ctx context.Context, url string) <-chan common.Event {
	events := make(chan common.Event)

	go func() {
		defer close(events)
		_ = p.Execute(ctx, url, func(e common.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
	}()

	return events
}

// Execute extracts synchronously, passing every event to emit. The returned
// error is the one already reported in the error event.
func (p *Pipeline) Execute(ctx context.Context, url string, emit func(common.Event)) (err error) {
	logger := p.logger.With("request_id", uuid.NewString(), "url", url)
	start := time.Now()
	p.metrics.ExtractionStarted()

	defer func() {
		outcome := metrics.OutcomeComplete
		if err != nil {
			outcome = errs.Kind(err)
			logger.Error("Extraction failed", "kind", outcome, "err", err)
			emit(common.ErrorEvent(err))
		}
		p.metrics.ExtractionFinished(outcome, time.Since(start))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = &errs.ExtractionError{Stage: "extraction", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if url == "" {
		return errs.ErrURLRequired
	}

	reviews, err := p.extract(ctx, url, emit, logger)
	if err != nil {
		return err
	}

	p.metrics.ReviewsExtracted(len(reviews))
	logger.Info("Extraction complete", "reviews", len(reviews), "elapsed", time.Since(start).Round(time.Millisecond))
	emit(common.CompleteEvent(reviews))
	return nil
}

func (p *Pipeline) extract(ctx context.Context, url string, emit func(common.Event), logger *log.Logger) ([]common.Review, error) {
	enter := func(status string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("Entering stage", "status", status)
		emit(common.StatusEvent(status))
		return nil
	}

	if err := enter(common.StatusLaunching); err != nil {
		return nil, err
	}
	var session browser.Session
	err := p.timed("launch", func() (err error) {
		session, err = p.launcher.Launch(ctx)
		return err
	})
	if err != nil {
		return nil, classify("browser launch", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser", "err", err)
		}
	}()

	if err := enter(common.StatusNavigating); err != nil {
		return nil, err
	}
	if err := p.timed("navigate", func() error {
		return session.Navigate(url, p.navTimeout)
	}); err != nil {
		return nil, classify("navigation", err)
	}

	if err := enter(common.StatusAnalyzing); err != nil {
		return nil, err
	}
	var structure common.PageStructure
	if err := p.timed("analyze", func() error {
		html, err := session.Snapshot()
		if err != nil {
			return err
		}
		structure, err = analyzer.AnalyzeHTML(html)
		return err
	}); err != nil {
		return nil, classify("page analysis", err)
	}
	logger.Debug("Analyzed page",
		"containers", len(structure.PossibleReviewContainers),
		"ratings", len(structure.RatingTypes))

	if err := enter(common.StatusIdentifying); err != nil {
		return nil, err
	}
	var selectors common.SelectorMap
	if err := p.timed("infer", func() (err error) {
		selectors, err = p.inferrer.Infer(ctx, structure)
		return err
	}); err != nil {
		return nil, classify("selector inference", err)
	}
	logger.Debug("Inferred selectors", "selectors", selectors)

	// The page may have changed since analysis, so extraction reads a fresh
	// snapshot.
	if err := enter(common.StatusExtracting); err != nil {
		return nil, err
	}
	var raw []common.RawReview
	if err := p.timed("extract", func() error {
		html, err := session.Snapshot()
		if err != nil {
			return err
		}
		raw, err = extractor.ExtractHTML(html, selectors)
		return err
	}); err != nil {
		return nil, classify("review extraction", err)
	}

	if err := enter(common.StatusProcessing); err != nil {
		return nil, err
	}
	return extractor.Normalize(raw), nil
}

func (p *Pipeline) timed(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.StageFinished(stage, time.Since(start))
	return err
}

// classify wraps errors that carry no kind of their own
func classify(stage string, err error) error {
	if errs.Kind(err) == errs.KindUnknown {
		return &errs.ExtractionError{Stage: stage, Err: err}
	}
	return err
}
