package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/reviews/pkg/common"
)

func send(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestModelRun(t *testing.T) {
	m := NewModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	reviews := []common.Review{
		{Title: "Solid", Body: "Great product", Rating: 4, Reviewer: "Ana"},
		{Title: "Review", Body: "Fine", Rating: 5, Reviewer: "Anonymous"},
	}
	timeout := errors.New("navigation timeout of 30000 ms exceeded loading https://shop.example/p/2")

	send(m,
		PageQueuedMsg{URL: "https://shop.example/p/1"},
		PageQueuedMsg{URL: "https://shop.example/p/2"},
		PageStartedMsg{URL: "https://shop.example/p/1"},
		EventMsg{URL: "https://shop.example/p/1", Event: common.StatusEvent(common.StatusLaunching)},
		EventMsg{URL: "https://shop.example/p/1", Event: common.CompleteEvent(reviews)},
		PageFinishedMsg{URL: "https://shop.example/p/1", Reviews: reviews, File: "out/shop.example_p_1.json"},
		PageStartedMsg{URL: "https://shop.example/p/2"},
		PageFinishedMsg{URL: "https://shop.example/p/2", Err: timeout},
		RunFinishedMsg{Summary: "Summary written to out/summary.json"},
	)

	stats := m.Stats()
	assert.Equal(t, 2, stats.Pages)
	assert.Equal(t, 2, stats.Done)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Reviews)
	assert.InDelta(t, 4.5, stats.AverageRating(), 0.001)
	assert.True(t, m.Finished())

	first, ok := m.layout.pages.Item("https://shop.example/p/1")
	require.True(t, ok)
	assert.Equal(t, "2 reviews", first.Description())

	second, ok := m.layout.pages.Item("https://shop.example/p/2")
	require.True(t, ok)
	assert.Equal(t, PageFailed, second.state)
	assert.Contains(t, second.Description(), "navigation timeout")

	assert.Equal(t, 2, m.layout.reviews.Len())

	view := m.View()
	assert.Contains(t, view, "Run Statistics")
	assert.Contains(t, view, "Great product")
}

func TestModelQuitCancels(t *testing.T) {
	testCases := []string{"q", "ctrl+c"}

	for _, key := range testCases {
		t.Run(key, func(t *testing.T) {
			canceled := false
			m := NewModel(func() { canceled = true })

			var msg tea.KeyMsg
			if key == "ctrl+c" {
				msg = tea.KeyMsg{Type: tea.KeyCtrlC}
			} else {
				msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
			}

			_, cmd := m.Update(msg)
			require.NotNil(t, cmd)
			assert.True(t, canceled)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestStagePanelProgress(t *testing.T) {
	p := NewStagePanel()
	p.Start("https://shop.example/p/1")

	p.Observe(common.StatusEvent(common.StatusLaunching))
	p.Observe(common.StatusEvent(common.StatusNavigating))
	assert.InDelta(t, 0.4, p.tracker.Progress(), 0.001)
	assert.True(t, p.active)

	p.Observe(common.StatusEvent(common.StatusIdentifying))
	assert.InDelta(t, 0.4, p.tracker.Progress(), 0.001, "inference stage leaves the bar in place")

	p.Observe(common.ErrorEvent(errors.New("boom")))
	assert.False(t, p.active)
	assert.True(t, p.tracker.Failed())
}

func TestConsoleFilter(t *testing.T) {
	c := NewConsole()
	c.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	c.SetSize(80, 10)

	c.Add(LevelInfo, "started")
	c.Add(LevelWarning, "no reviews found")
	c.Add(LevelError, "navigation timeout")

	testCases := []struct {
		key  string
		want []string
	}{
		{key: "1", want: []string{"started", "no reviews found", "navigation timeout"}},
		{key: "2", want: []string{"no reviews found", "navigation timeout"}},
		{key: "3", want: []string{"navigation timeout"}},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tc.key)})
			assert.Equal(t, tc.want, c.Visible())
		})
	}

	assert.Contains(t, c.View(), "Errors: 1 | Warnings: 1")
}

func TestStars(t *testing.T) {
	testCases := []struct {
		rating int
		want   string
	}{
		{rating: 0, want: "☆☆☆☆☆"},
		{rating: 3, want: "★★★☆☆"},
		{rating: 5, want: "★★★★★"},
		{rating: 8, want: "★★★★★"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, stars(tc.rating))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a long...", truncate("a long review body", 9))
	assert.Equal(t, "two lines", truncate("two\n  lines", 20))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "01:02:03", formatElapsed(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "00:00:00", formatElapsed(0))
}
