package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RunStats holds the totals of an extraction run
type RunStats struct {
	Pages      int
	Done       int
	Failed     int
	Reviews    int
	RatingSum  int
	StartTime  time.Time
	FinishTime time.Time
}

// AverageRating returns the mean rating across all reviews, or zero
func (s RunStats) AverageRating() float64 {
	if s.Reviews == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.Reviews)
}

// Elapsed returns how long the run has taken so far
func (s RunStats) Elapsed(now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if !s.FinishTime.IsZero() {
		return s.FinishTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

type StatsPanel struct {
	stats      RunStats
	width      int
	height     int
	style      lipgloss.Style
	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
	now        func() time.Time
}

func NewStatsPanel() *StatsPanel {
	return &StatsPanel{
		style: borderStyle.Copy().BorderForeground(lipgloss.Color("99")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Bold(true),
		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		now: time.Now,
	}
}

func (s *StatsPanel) SetSize(width, height int) {
	s.width = width
	s.height = height
}

func (s *StatsPanel) Stats() RunStats { return s.stats }

func (s *StatsPanel) Update(fn func(*RunStats)) { fn(&s.stats) }

func (s *StatsPanel) View() string {
	succeeded := s.stats.Done - s.stats.Failed
	rows := []struct {
		label string
		value string
	}{
		{"Pages", fmt.Sprintf("%d/%d", s.stats.Done, s.stats.Pages)},
		{"Succeeded", fmt.Sprintf("%d", succeeded)},
		{"Failed", fmt.Sprintf("%d", s.stats.Failed)},
		{"Reviews", fmt.Sprintf("%d", s.stats.Reviews)},
		{"Avg Rating", fmt.Sprintf("%.1f", s.stats.AverageRating())},
		{"Elapsed Time", formatElapsed(s.stats.Elapsed(s.now()))},
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("Run Statistics") + "\n\n")

	columnWidth := max((s.width-8)/2, 12)
	for _, row := range rows {
		fmt.Fprintf(&content, "%-*s %s\n",
			columnWidth,
			s.labelStyle.Render(row.label+":"),
			s.valueStyle.Render(row.value),
		)
	}

	return s.style.Width(s.width).Height(s.height).Render(content.String())
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours()),
		int(d.Minutes())%60,
		int(d.Seconds())%60,
	)
}
