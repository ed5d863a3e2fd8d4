package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/reviews/internal/pipeline"
	"github.com/go-scripts/reviews/internal/progress"
	"github.com/go-scripts/reviews/internal/queue"
	"github.com/go-scripts/reviews/internal/server"
	"github.com/go-scripts/reviews/internal/writer"
	"github.com/go-scripts/reviews/pkg/common"
	"github.com/go-scripts/reviews/ui"
)

// ExtractCmd extracts reviews from the given pages one after another
type ExtractCmd struct {
	URLs   []string `arg:"" name:"url" help:"Pages to extract reviews from."`
	Server string   `help:"Base URL of a running reviews server; extraction runs locally when empty." env:"REVIEWS_SERVER"`
	Output string   `short:"o" help:"Directory for per-page JSON files and summary.json." type:"path"`
	Plain  bool     `help:"Print progress lines instead of the dashboard."`
}

// extractFunc runs one page and returns its terminal event. A failed
// extraction comes back as an error event; the error return is for
// transport problems.
type extractFunc func(ctx context.Context, page string, fn func(common.Event)) (common.Event, error)

// localExtract runs the pipeline in this process
func localExtract(p *pipeline.Pipeline) extractFunc {
	return func(ctx context.Context, page string, fn func(common.Event)) (common.Event, error) {
		var last common.Event
		_ = p.Execute(ctx, page, func(e common.Event) {
			last = e
			fn(e)
		})
		return last, nil
	}
}

// reporter presents the progress of a run
type reporter interface {
	Queued(page string)
	Started(page string)
	Event(page string, e common.Event)
	Finished(page string, reviews []common.Review, err error, file string)
	Done(summary string, err error)
}

type run struct {
	extract extractFunc
	writer  *writer.FileWriter
}

// process drains the queue and returns one summary entry per page
func (r *run) process(ctx context.Context, q *queue.Queue, rep reporter) ([]writer.SummaryEntry, error) {
	var entries []writer.SummaryEntry
	failed := 0

	for {
		if ctx.Err() != nil {
			break
		}
		page, ok := q.Next()
		if !ok {
			break
		}

		rep.Started(page)
		entry, reviews, file, err := r.page(ctx, page, rep)
		if err != nil {
			failed++
		}
		rep.Finished(page, reviews, err, file)
		entries = append(entries, entry)
	}

	summary := ""
	if r.writer != nil {
		path, err := r.writer.WriteSummary(entries)
		if err != nil {
			return entries, err
		}
		summary = "Summary written to " + path
	}

	var err error
	switch {
	case ctx.Err() != nil:
		err = ctx.Err()
	case failed > 0:
		err = fmt.Errorf("%d of %d pages failed", failed, len(entries))
	}
	rep.Done(summary, err)
	return entries, err
}

func (r *run) page(ctx context.Context, page string, rep reporter) (writer.SummaryEntry, []common.Review, string, error) {
	entry := writer.SummaryEntry{URL: page}

	final, err := r.extract(ctx, page, func(e common.Event) { rep.Event(page, e) })
	if err == nil && final.Status == common.StatusError {
		err = errors.New(final.Error)
	}
	if err != nil {
		entry.Error = err.Error()
		return entry, nil, "", err
	}

	entry.ReviewsCount = len(final.Reviews)
	if r.writer == nil {
		return entry, final.Reviews, "", nil
	}

	path, err := r.writer.WriteBatch(page, final.Reviews)
	if err != nil {
		entry.Error = err.Error()
		return entry, final.Reviews, "", err
	}
	entry.File = filepath.Base(path)
	return entry, final.Reviews, path, nil
}

func (e *ExtractCmd) Run(c *Context, ctx context.Context) error {
	q := queue.New()
	for _, u := range e.URLs {
		if !q.Add(u) {
			c.Logger.Warn("Skipping duplicate page", "url", u)
		}
	}

	r := &run{}
	if e.Server != "" {
		r.extract = server.NewClient(e.Server, nil).Stream
	} else {
		if c.LLM.APIKey == "" {
			c.Logger.Warn("No API key configured; selector inference will fail", "env", "GEMINI_API_KEY")
		}
		p, closeCache, err := newPipeline(c.Globals, c.Logger, nil)
		if err != nil {
			return err
		}
		defer closeCache()
		r.extract = localExtract(p)
	}

	if e.Output != "" {
		w, err := writer.New(e.Output)
		if err != nil {
			return err
		}
		r.writer = w
	}

	if e.Plain {
		_, err := r.process(ctx, q, newPlainReporter(c.Logger, os.Stderr, q.Pending()))
		return err
	}
	return e.runDashboard(ctx, c.Logger, r, q)
}

// runDashboard runs the extraction behind the bubbletea dashboard. Quitting
// the dashboard cancels whatever is still in flight.
func (e *ExtractCmd) runDashboard(ctx context.Context, logger *log.Logger, r *run, q *queue.Queue) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(cancel), tea.WithAltScreen(), tea.WithContext(ctx))
	rep := &dashboardReporter{send: p.Send}

	// Log lines would draw over the dashboard; failures show in its console.
	logger.SetLevel(log.FatalLevel)

	done := make(chan error, 1)
	go func() {
		for _, page := range q.Pending() {
			rep.Queued(page)
		}
		_, err := r.process(ctx, q, rep)
		done <- err
	}()

	_, tuiErr := p.Run()
	cancel()
	err := <-done
	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard failed: %w", tuiErr)
	}
	return err
}

type dashboardReporter struct {
	send func(tea.Msg)
}

func (d *dashboardReporter) Queued(page string) { d.send(ui.PageQueuedMsg{URL: page}) }

func (d *dashboardReporter) Started(page string) { d.send(ui.PageStartedMsg{URL: page}) }

func (d *dashboardReporter) Event(page string, e common.Event) {
	d.send(ui.EventMsg{URL: page, Event: e})
}

func (d *dashboardReporter) Finished(page string, reviews []common.Review, err error, file string) {
	d.send(ui.PageFinishedMsg{URL: page, Reviews: reviews, Err: err, File: file})
}

func (d *dashboardReporter) Done(summary string, err error) {
	d.send(ui.RunFinishedMsg{Summary: summary, Err: err})
}

// plainReporter prints a spinner and log lines, for pipes and CI
type plainReporter struct {
	logger  *log.Logger
	spinner *spinner.Spinner
	tracker *progress.Tracker
	total   int
	current int
}

func newPlainReporter(logger *log.Logger, w io.Writer, pages []string) *plainReporter {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	return &plainReporter{
		logger:  logger,
		spinner: s,
		tracker: progress.New(),
		total:   len(pages),
	}
}

func (p *plainReporter) Queued(string) {}

func (p *plainReporter) Started(page string) {
	p.current++
	p.tracker.Reset()
	p.logger.Info("Extracting", "page", fmt.Sprintf("%d/%d", p.current, p.total), "url", page)
	p.setSuffix(" " + p.tracker.Status())
	p.spinner.Start()
}

func (p *plainReporter) Event(_ string, e common.Event) {
	p.tracker.Observe(e)
	p.setSuffix(fmt.Sprintf(" %s %s", p.tracker.View(), p.tracker.Status()))
}

// setSuffix updates the spinner text; the spinner goroutine reads it under
// the spinner's lock.
func (p *plainReporter) setSuffix(suffix string) {
	p.spinner.Lock()
	p.spinner.Suffix = suffix
	p.spinner.Unlock()
}

func (p *plainReporter) suffix() string {
	p.spinner.Lock()
	defer p.spinner.Unlock()
	return p.spinner.Suffix
}

func (p *plainReporter) Finished(page string, reviews []common.Review, err error, file string) {
	p.spinner.Stop()
	switch {
	case err != nil:
		p.logger.Error("Extraction failed", "url", page, "err", err)
	case file != "":
		p.logger.Info("Reviews written", "url", page, "reviews", len(reviews), "file", file)
	default:
		p.logger.Info("Reviews extracted", "url", page, "reviews", len(reviews))
		for _, r := range reviews {
			p.logger.Info(r.Title, "reviewer", r.Reviewer, "rating", r.Rating, "body", r.Body)
		}
	}
}

func (p *plainReporter) Done(summary string, err error) {
	if summary != "" {
		p.logger.Info(summary)
	}
	if err == nil {
		p.logger.Info("Run complete", "pages", p.total)
	}
}
