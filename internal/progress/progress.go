package progress

import (
	"sync"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/go-scripts/reviews/pkg/common"
)

// Human readable summaries of a finished extraction
const (
	StatusStarting = "Starting extraction..."
	StatusDone     = "Extraction complete!"
	StatusFailed   = "Extraction failed"
)

var stagePercent = map[string]int{
	common.StatusLaunching:  20,
	common.StatusNavigating: 40,
	common.StatusAnalyzing:  60,
	common.StatusExtracting: 80,
	common.StatusProcessing: 90,
	common.StatusComplete:   100,
}

// Percent maps a status to how far along the extraction is. Statuses with
// no mapping, such as the inference stage, report false and leave the bar
// where it was.
func Percent(status string) (int, bool) {
	p, ok := stagePercent[status]
	return p, ok
}

// Tracker follows the events of one extraction
type Tracker struct {
	bar     progress.Model
	percent int
	status  string
	failed  bool
	mu      sync.Mutex
}

// New creates a Tracker
func New() *Tracker {
	return &Tracker{
		bar:    progress.New(progress.WithDefaultGradient()),
		status: StatusStarting,
	}
}

// Observe records an event
func (t *Tracker) Observe(e common.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Status {
	case common.StatusComplete:
		t.status = StatusDone
	case common.StatusError:
		t.status = StatusFailed
		t.failed = true
	default:
		t.status = e.Status
	}
	if p, ok := Percent(e.Status); ok {
		t.percent = p
	}
}

// Reset prepares the tracker for the next extraction
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percent = 0
	t.status = StatusStarting
	t.failed = false
}

// Progress returns the completed fraction in [0, 1]
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.percent) / 100
}

func (t *Tracker) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

// View renders a static progress bar
func (t *Tracker) View() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bar.ViewAs(float64(t.percent) / 100)
}
