package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			PaddingLeft(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("110"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	starStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

// stars renders a rating as filled and empty stars. Ratings above five
// are drawn as five.
func stars(rating int) string {
	filled := max(0, min(rating, 5))
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// truncate shortens s to at most w runes
func truncate(s string, w int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:max(w, 0)])
	}
	return string(r[:w-3]) + "..."
}
