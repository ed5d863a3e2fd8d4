package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the severity of a console entry
type LogLevel int

const (
	LevelInfo LogLevel = iota
	LevelWarning
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	default:
		return "INFO"
	}
}

type logEntry struct {
	timestamp time.Time
	level     LogLevel
	message   string
}

var (
	errorLogStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// Console shows run messages, filterable by level with the 1, 2 and 3 keys
type Console struct {
	viewport  viewport.Model
	entries   []logEntry
	width     int
	height    int
	style     lipgloss.Style
	showLevel LogLevel
	now       func() time.Time
}

func NewConsole() *Console {
	return &Console{
		viewport:  viewport.New(0, 0),
		style:     borderStyle.Copy().BorderForeground(lipgloss.Color("196")),
		showLevel: LevelInfo,
		now:       time.Now,
	}
}

func (c *Console) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.viewport.Width = max(width-4, 0)
	c.viewport.Height = max(height-5, 0)
	c.refresh()
}

func (c *Console) Add(level LogLevel, msg string) {
	c.entries = append(c.entries, logEntry{timestamp: c.now(), level: level, message: msg})
	c.refresh()
}

func (c *Console) Update(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "1":
			c.showLevel = LevelInfo
			c.refresh()
		case "2":
			c.showLevel = LevelWarning
			c.refresh()
		case "3":
			c.showLevel = LevelError
			c.refresh()
		}
	}

	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return cmd
}

func (c *Console) View() string {
	filter := fmt.Sprintf("Filter: %s (1:Info 2:Warn 3:Error)", c.showLevel)
	stats := fmt.Sprintf(
		"Total: %d | Errors: %d | Warnings: %d",
		len(c.entries),
		c.count(LevelError),
		c.count(LevelWarning),
	)

	return c.style.Width(c.width).Render(
		c.viewport.View() + "\n" +
			infoStyle.Render(filter) + "\n" +
			infoStyle.Render(stats),
	)
}

// Visible returns the messages that pass the current filter
func (c *Console) Visible() []string {
	var out []string
	for _, e := range c.entries {
		if e.level >= c.showLevel {
			out = append(out, e.message)
		}
	}
	return out
}

func (c *Console) refresh() {
	var sb strings.Builder
	for _, entry := range c.entries {
		if entry.level < c.showLevel {
			continue
		}

		style := infoStyle
		switch entry.level {
		case LevelError:
			style = errorLogStyle
		case LevelWarning:
			style = warningStyle
		}

		fmt.Fprintf(&sb, "%s [%s] %s\n",
			timestampStyle.Render(entry.timestamp.Format("15:04:05")),
			style.Render(entry.level.String()),
			entry.message,
		)
	}

	atBottom := c.viewport.AtBottom()
	c.viewport.SetContent(sb.String())
	if atBottom {
		c.viewport.GotoBottom()
	}
}

func (c *Console) count(level LogLevel) int {
	n := 0
	for _, e := range c.entries {
		if e.level == level {
			n++
		}
	}
	return n
}
