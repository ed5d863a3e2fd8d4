package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Layout arranges the panels of the extraction dashboard
type Layout struct {
	stage   *StagePanel
	stats   *StatsPanel
	pages   *PageList
	reviews *ReviewsTable
	console *Console
	width   int
	height  int
}

// NewLayout creates and initializes a new layout with all panels
func NewLayout() *Layout {
	return &Layout{
		stage:   NewStagePanel(),
		stats:   NewStatsPanel(),
		pages:   NewPageList(),
		reviews: NewReviewsTable(),
		console: NewConsole(),
	}
}

// SetSize adjusts the layout and all panels to the given dimensions
func (l *Layout) SetSize(width, height int) {
	l.width = width
	l.height = height

	halfWidth := width / 2
	topHeight := height / 2
	stageHeight := int(float64(topHeight) * 0.6)
	consoleHeight := (height - topHeight) / 2

	l.stage.SetSize(halfWidth, stageHeight)
	l.stats.SetSize(halfWidth, topHeight-stageHeight)
	l.pages.SetSize(width-halfWidth, topHeight)
	l.reviews.SetSize(width, height-topHeight-consoleHeight)
	l.console.SetSize(width, consoleHeight)
}

// Update forwards messages to the panels that react to them
func (l *Layout) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		l.SetSize(msg.Width, msg.Height)
	}

	return tea.Batch(
		l.stage.Update(msg),
		l.pages.Update(msg),
		l.reviews.Update(msg),
		l.console.Update(msg),
	)
}

func (l *Layout) View() string {
	left := lipgloss.JoinVertical(
		lipgloss.Left,
		l.stage.View(),
		l.stats.View(),
	)

	top := lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		l.pages.View(),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		l.reviews.View(),
		l.console.View(),
	)
}
