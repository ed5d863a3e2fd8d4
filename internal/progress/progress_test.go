package progress

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/reviews/pkg/common"
)

func TestPercent(t *testing.T) {
	testCases := []struct {
		status string
		want   int
		known  bool
	}{
		{status: common.StatusLaunching, want: 20, known: true},
		{status: common.StatusNavigating, want: 40, known: true},
		{status: common.StatusAnalyzing, want: 60, known: true},
		{status: common.StatusIdentifying, known: false},
		{status: common.StatusExtracting, want: 80, known: true},
		{status: common.StatusProcessing, want: 90, known: true},
		{status: common.StatusComplete, want: 100, known: true},
		{status: common.StatusError, known: false},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			got, ok := Percent(tc.status)
			assert.Equal(t, tc.known, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTracker(t *testing.T) {
	tracker := New()
	assert.Equal(t, StatusStarting, tracker.Status())
	assert.Zero(t, tracker.Progress())

	tracker.Observe(common.StatusEvent(common.StatusAnalyzing))
	tracker.Observe(common.StatusEvent(common.StatusIdentifying))
	assert.Equal(t, common.StatusIdentifying, tracker.Status())
	assert.InDelta(t, 0.6, tracker.Progress(), 1e-9, "unmapped stages keep the bar in place")

	tracker.Observe(common.CompleteEvent(nil))
	assert.Equal(t, StatusDone, tracker.Status())
	assert.InDelta(t, 1.0, tracker.Progress(), 1e-9)
	assert.False(t, tracker.Failed())
	assert.NotEmpty(t, tracker.View())

	tracker.Reset()
	tracker.Observe(common.StatusEvent(common.StatusLaunching))
	tracker.Observe(common.ErrorEvent(errors.New("navigation timeout")))
	assert.Equal(t, StatusFailed, tracker.Status())
	assert.True(t, tracker.Failed())
	assert.InDelta(t, 0.2, tracker.Progress(), 1e-9)
}
