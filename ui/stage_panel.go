package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	extraction "github.com/go-scripts/reviews/internal/progress"
	"github.com/go-scripts/reviews/pkg/common"
)

var stages = []string{
	common.StatusLaunching,
	common.StatusNavigating,
	common.StatusAnalyzing,
	common.StatusIdentifying,
	common.StatusExtracting,
	common.StatusProcessing,
}

// StagePanel shows the extraction in flight: a spinner, the current stage
// and an animated progress bar.
type StagePanel struct {
	spinner spinner.Model
	bar     progress.Model
	tracker *extraction.Tracker
	url     string
	active  bool
	seen    map[string]bool
	width   int
	height  int
	style   lipgloss.Style
}

func NewStagePanel() *StagePanel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return &StagePanel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		tracker: extraction.New(),
		seen:    make(map[string]bool),
		style:   borderStyle.Copy().BorderForeground(lipgloss.Color("63")),
	}
}

// Start resets the panel for a new page
func (p *StagePanel) Start(url string) tea.Cmd {
	p.url = url
	p.active = true
	p.seen = make(map[string]bool)
	p.tracker.Reset()
	return tea.Batch(p.spinner.Tick, p.bar.SetPercent(0))
}

// Observe advances the panel on a progress event
func (p *StagePanel) Observe(e common.Event) tea.Cmd {
	p.tracker.Observe(e)
	p.seen[e.Status] = true
	if e.Terminal() {
		p.active = false
	}
	return p.bar.SetPercent(p.tracker.Progress())
}

// Idle clears the panel once every page is done
func (p *StagePanel) Idle() {
	p.active = false
	p.url = ""
}

func (p *StagePanel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.active {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	case progress.FrameMsg:
		model, cmd := p.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			p.bar = bar
		}
		return cmd
	}
	return nil
}

func (p *StagePanel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Extraction") + "\n\n")

	if p.url == "" {
		sb.WriteString(mutedStyle.Render("Idle"))
		return p.style.Width(p.width).Height(p.height).Render(sb.String())
	}

	sb.WriteString(infoStyle.Render(truncate(p.url, max(p.width-6, 10))) + "\n")

	indicator := p.spinner.View()
	if !p.active {
		indicator = "•"
	}
	status := p.tracker.Status()
	if p.tracker.Failed() {
		status = errorStyle.Render(status)
	}
	sb.WriteString(fmt.Sprintf("%s %s\n\n", indicator, status))
	sb.WriteString(p.bar.View() + "\n\n")

	for _, stage := range stages {
		mark := mutedStyle.Render("○")
		if p.seen[stage] {
			mark = infoStyle.Render("●")
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, stage))
	}

	return p.style.Width(p.width).Height(p.height).Render(sb.String())
}

func (p *StagePanel) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.bar.Width = max(width-8, 10)
}
