package ui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/go-scripts/reviews/pkg/common"
)

type reviewRow struct {
	page   string
	review common.Review
}

// ReviewsTable lists every review extracted so far
type ReviewsTable struct {
	viewport    viewport.Model
	rows        []reviewRow
	pages       map[string]int
	width       int
	height      int
	headerStyle lipgloss.Style
	style       lipgloss.Style
}

func NewReviewsTable() *ReviewsTable {
	return &ReviewsTable{
		viewport: viewport.New(0, 0),
		pages:    make(map[string]int),
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		style: borderStyle.Copy().BorderForeground(lipgloss.Color("35")),
	}
}

func (t *ReviewsTable) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.viewport.Width = max(width-4, 0)
	t.viewport.Height = max(height-5, 0)
	t.refresh()
}

func (t *ReviewsTable) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			t.viewport.HalfViewUp()
		case "pgdown":
			t.viewport.HalfViewDown()
		}
	}

	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return cmd
}

// Add appends the reviews of one page
func (t *ReviewsTable) Add(pageURL string, reviews []common.Review) {
	atBottom := t.viewport.AtBottom()
	for _, r := range reviews {
		t.rows = append(t.rows, reviewRow{page: pageURL, review: r})
	}
	t.pages[pageURL] += len(reviews)
	t.refresh()
	if atBottom {
		t.viewport.GotoBottom()
	}
}

// Len returns the number of reviews shown
func (t *ReviewsTable) Len() int { return len(t.rows) }

func (t *ReviewsTable) View() string {
	if len(t.rows) == 0 {
		return t.style.Width(t.width).Height(t.height).Render(infoStyle.Render("No reviews yet"))
	}

	summary := fmt.Sprintf("Reviews: %d | Pages: %d", len(t.rows), len(t.pages))
	return t.style.Width(t.width).Render(
		t.viewport.View() + "\n" + infoStyle.Render(summary),
	)
}

func (t *ReviewsTable) refresh() {
	if len(t.rows) == 0 {
		return
	}

	pageWidth := min(24, t.width/5)
	reviewerWidth := min(18, t.width/6)
	titleWidth := min(24, t.width/5)
	bodyWidth := max(t.width-pageWidth-reviewerWidth-titleWidth-16, 10)

	header := t.headerStyle.Render(fmt.Sprintf(
		"%-*s %-*s %-5s %-*s %s",
		pageWidth, "Page",
		reviewerWidth, "Reviewer",
		"Stars",
		titleWidth, "Title",
		"Review",
	))

	lines := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		lines = append(lines, fmt.Sprintf(
			"%-*s %-*s %s %-*s %s",
			pageWidth, truncate(pagePath(row.page), pageWidth),
			reviewerWidth, truncate(row.review.Reviewer, reviewerWidth),
			starStyle.Render(stars(row.review.Rating)),
			titleWidth, truncate(row.review.Title, titleWidth),
			truncate(row.review.Body, bodyWidth),
		))
	}

	t.viewport.SetContent(header + "\n" + strings.Join(lines, "\n"))
}

// pagePath shortens a page URL to host and path
func pagePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.") + u.Path
}
