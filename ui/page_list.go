package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PageState is where a queued page is in its extraction
type PageState int

const (
	PagePending PageState = iota
	PageExtracting
	PageDone
	PageFailed
)

// PageItem is one page in the list
type PageItem struct {
	url     string
	state   PageState
	reviews int
	err     string
}

func (i PageItem) FilterValue() string { return i.url }

func (i PageItem) Title() string { return i.url }

func (i PageItem) Description() string {
	switch i.state {
	case PageExtracting:
		return "extracting"
	case PageDone:
		return fmt.Sprintf("%d reviews", i.reviews)
	case PageFailed:
		return "failed: " + i.err
	default:
		return "pending"
	}
}

// PageList shows every page of the run with its state
type PageList struct {
	list   list.Model
	style  lipgloss.Style
	width  int
	height int
	done   int
	total  int
}

func NewPageList() *PageList {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("170"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(lipgloss.Color("244"))

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Pages"
	l.Styles.Title = l.Styles.Title.Foreground(lipgloss.Color("240"))
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return &PageList{
		list:  l,
		style: borderStyle.Copy().BorderForeground(lipgloss.Color("99")),
	}
}

func (p *PageList) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.list.SetSize(max(width-4, 0), max(height-2, 0))
}

func (p *PageList) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			p.list.CursorUp()
			return nil
		case "down", "j":
			p.list.CursorDown()
			return nil
		}
	}
	return nil
}

func (p *PageList) View() string {
	return p.style.Width(p.width).Height(p.height).Render(p.list.View())
}

// Add appends a pending page
func (p *PageList) Add(url string) tea.Cmd {
	p.total++
	p.updateTitle()
	return p.list.InsertItem(len(p.list.Items()), PageItem{url: url})
}

// Start marks a page as being extracted
func (p *PageList) Start(url string) {
	p.set(url, func(item *PageItem) { item.state = PageExtracting })
}

// Finish records the outcome of a page
func (p *PageList) Finish(url string, reviews int, err error) {
	p.set(url, func(item *PageItem) {
		if err != nil {
			item.state = PageFailed
			item.err = err.Error()
		} else {
			item.state = PageDone
			item.reviews = reviews
		}
	})
	p.done++
	p.updateTitle()
}

// Item returns the list entry for url
func (p *PageList) Item(url string) (PageItem, bool) {
	for _, item := range p.list.Items() {
		if page, ok := item.(PageItem); ok && page.url == url {
			return page, true
		}
	}
	return PageItem{}, false
}

func (p *PageList) set(url string, fn func(*PageItem)) {
	for i, item := range p.list.Items() {
		if page, ok := item.(PageItem); ok && page.url == url {
			fn(&page)
			p.list.SetItem(i, page)
			return
		}
	}
}

func (p *PageList) updateTitle() {
	p.list.Title = fmt.Sprintf("Pages (%d pending)", p.total-p.done)
}
