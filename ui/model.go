// Package ui renders the terminal dashboard of the extract command.
package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-scripts/reviews/pkg/common"
)

// PageQueuedMsg adds a page to the run
type PageQueuedMsg struct {
	URL string
}

// PageStartedMsg marks the beginning of a page extraction
type PageStartedMsg struct {
	URL string
}

// EventMsg carries one progress event of the page being extracted
type EventMsg struct {
	URL   string
	Event common.Event
}

// PageFinishedMsg reports the outcome of a page. File is where the reviews
// were written, if anywhere.
type PageFinishedMsg struct {
	URL     string
	Reviews []common.Review
	Err     error
	File    string
}

// RunFinishedMsg is sent once every page has been handled
type RunFinishedMsg struct {
	Summary string
	Err     error
}

// LogMsg adds a line to the console
type LogMsg struct {
	Level   LogLevel
	Message string
}

// Model is the bubbletea model of the extract dashboard
type Model struct {
	layout   *Layout
	cancel   context.CancelFunc
	finished bool
	now      func() time.Time
}

// NewModel creates the dashboard. cancel is called when the user quits.
func NewModel(cancel context.CancelFunc) *Model {
	if cancel == nil {
		cancel = func() {}
	}
	m := &Model{
		layout: NewLayout(),
		cancel: cancel,
		now:    time.Now,
	}
	m.layout.stats.Update(func(s *RunStats) { s.StartTime = m.now() })
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("reviews")
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := m.layout

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}

	case PageQueuedMsg:
		l.stats.Update(func(s *RunStats) { s.Pages++ })
		return m, l.pages.Add(msg.URL)

	case PageStartedMsg:
		l.pages.Start(msg.URL)
		return m, l.stage.Start(msg.URL)

	case EventMsg:
		return m, l.stage.Observe(msg.Event)

	case PageFinishedMsg:
		m.finishPage(msg)
		return m, nil

	case RunFinishedMsg:
		m.finished = true
		l.stage.Idle()
		l.stats.Update(func(s *RunStats) { s.FinishTime = m.now() })
		if msg.Err != nil {
			l.console.Add(LevelError, msg.Err.Error())
		}
		if msg.Summary != "" {
			l.console.Add(LevelInfo, msg.Summary)
		}
		l.console.Add(LevelInfo, "Run finished, press q to quit")
		return m, nil

	case LogMsg:
		l.console.Add(msg.Level, msg.Message)
		return m, nil
	}

	return m, l.Update(msg)
}

func (m *Model) finishPage(msg PageFinishedMsg) {
	l := m.layout
	l.pages.Finish(msg.URL, len(msg.Reviews), msg.Err)

	if msg.Err != nil {
		l.stats.Update(func(s *RunStats) {
			s.Done++
			s.Failed++
		})
		l.console.Add(LevelError, fmt.Sprintf("%s: %v", msg.URL, msg.Err))
		return
	}

	l.reviews.Add(msg.URL, msg.Reviews)
	l.stats.Update(func(s *RunStats) {
		s.Done++
		s.Reviews += len(msg.Reviews)
		for _, r := range msg.Reviews {
			s.RatingSum += r.Rating
		}
	})

	switch {
	case len(msg.Reviews) == 0:
		l.console.Add(LevelWarning, fmt.Sprintf("%s: no reviews found", msg.URL))
	case msg.File != "":
		l.console.Add(LevelInfo, fmt.Sprintf("%s: %d reviews written to %s", msg.URL, len(msg.Reviews), msg.File))
	default:
		l.console.Add(LevelInfo, fmt.Sprintf("%s: %d reviews", msg.URL, len(msg.Reviews)))
	}
}

func (m *Model) View() string {
	return m.layout.View()
}

// Finished reports whether every page has been handled
func (m *Model) Finished() bool { return m.finished }

// Stats returns the run totals shown on the dashboard
func (m *Model) Stats() RunStats { return m.layout.stats.Stats() }
