package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/reviews/internal/inference"
	"github.com/go-scripts/reviews/internal/pipeline"
	"github.com/go-scripts/reviews/internal/queue"
	"github.com/go-scripts/reviews/internal/server"
	"github.com/go-scripts/reviews/internal/writer"
	"github.com/go-scripts/reviews/pkg/browser/browsertest"
	"github.com/go-scripts/reviews/pkg/common"
)

const productPage = `<html><body>
<div class="review">
  <h3 class="title">Solid</h3>
  <p class="text">Great product</p>
  <span class="stars">★★★★</span>
  <span class="author">Ana</span>
</div>
<div class="review">
  <p class="text">Does the job</p>
</div>
</body></html>`

var productSelectors = inference.StaticInferrer{
	ReviewContainer: ".review",
	ReviewTitle:     ".title",
	ReviewText:      ".text",
	Rating:          ".stars",
	ReviewerName:    ".author",
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

type recorder struct {
	started  []string
	events   map[string][]string
	finished map[string]error
	reviews  map[string]int
	summary  string
	doneErr  error
}

func newRecorder() *recorder {
	return &recorder{
		events:   make(map[string][]string),
		finished: make(map[string]error),
		reviews:  make(map[string]int),
	}
}

func (r *recorder) Queued(string) {}

func (r *recorder) Started(page string) { r.started = append(r.started, page) }

func (r *recorder) Event(page string, e common.Event) {
	r.events[page] = append(r.events[page], e.Status)
}

func (r *recorder) Finished(page string, reviews []common.Review, err error, _ string) {
	r.finished[page] = err
	r.reviews[page] = len(reviews)
}

func (r *recorder) Done(summary string, err error) {
	r.summary = summary
	r.doneErr = err
}

func TestParseCommands(t *testing.T) {
	chdir(t, t.TempDir())

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "serve", args: []string{"serve", "--port", "6000"}, want: "serve"},
		{name: "extract", args: []string{"extract", "--plain", "https://shop.example/p/1"}, want: "extract <url>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var cli CLI
			parser, err := newParser(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
			require.NoError(t, err)

			kctx, err := parser.Parse(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, kctx.Command())
		})
	}
}

func TestServeDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	var cli CLI
	parser, err := newParser(&cli)
	require.NoError(t, err)
	_, err = parser.Parse([]string{"serve"})
	require.NoError(t, err)

	assert.Equal(t, 5000, cli.Serve.Port)
	assert.Equal(t, ":5000", cli.Serve.Addr())
	assert.True(t, cli.Browser.Headless)
	assert.Equal(t, pipeline.DefaultNavigationTimeout, cli.Browser.NavigationTimeout)
}

func TestProcessLocal(t *testing.T) {
	p := pipeline.New(&browsertest.Launcher{HTML: productPage}, productSelectors, pipeline.WithLogger(quietLogger()))

	dir := t.TempDir()
	w, err := writer.New(dir)
	require.NoError(t, err)

	q := queue.New()
	q.Add("https://shop.example/p/1")
	q.Add("")

	rec := newRecorder()
	r := &run{extract: localExtract(p), writer: w}
	entries, err := r.process(context.Background(), q, rec)

	require.Error(t, err)
	assert.Equal(t, "1 of 2 pages failed", err.Error())
	require.Len(t, entries, 2)

	assert.Equal(t, 2, entries[0].ReviewsCount)
	assert.Equal(t, "shop.example_p_1_e48d682d.json", entries[0].File)
	assert.Equal(t, "URL parameter is required", entries[1].Error)

	assert.NoError(t, rec.finished["https://shop.example/p/1"])
	assert.Equal(t, 2, rec.reviews["https://shop.example/p/1"])
	assert.Equal(t, common.StatusComplete, rec.events["https://shop.example/p/1"][6])
	assert.Contains(t, rec.summary, "summary.json")

	_, err = os.Stat(filepath.Join(dir, "summary.json"))
	assert.NoError(t, err)
}

func TestProcessRemote(t *testing.T) {
	p := pipeline.New(&browsertest.Launcher{HTML: productPage}, productSelectors, pipeline.WithLogger(quietLogger()))
	srv := httptest.NewServer(server.New(p, quietLogger(), nil))
	defer srv.Close()

	q := queue.New()
	q.Add("https://shop.example/p/1")

	rec := newRecorder()
	r := &run{extract: server.NewClient(srv.URL, srv.Client()).Stream}
	entries, err := r.process(context.Background(), q, rec)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].ReviewsCount)
	assert.Empty(t, entries[0].File)
	assert.Equal(t, []string{
		common.StatusLaunching,
		common.StatusNavigating,
		common.StatusAnalyzing,
		common.StatusIdentifying,
		common.StatusExtracting,
		common.StatusProcessing,
		common.StatusComplete,
	}, rec.events["https://shop.example/p/1"])
	assert.Empty(t, rec.summary)
}

func TestProcessFailures(t *testing.T) {
	testCases := []struct {
		name    string
		extract extractFunc
		wantErr string
	}{
		{
			name: "error event",
			extract: func(_ context.Context, _ string, fn func(common.Event)) (common.Event, error) {
				e := common.ErrorEvent(errors.New("selector inference: upstream unavailable"))
				fn(e)
				return e, nil
			},
			wantErr: "selector inference: upstream unavailable",
		},
		{
			name: "transport",
			extract: func(context.Context, string, func(common.Event)) (common.Event, error) {
				return common.Event{}, server.ErrIncompleteStream
			},
			wantErr: server.ErrIncompleteStream.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := queue.New()
			q.Add("https://shop.example/p/1")

			rec := newRecorder()
			entries, err := (&run{extract: tc.extract}).process(context.Background(), q, rec)

			require.Error(t, err)
			assert.Equal(t, tc.wantErr, entries[0].Error)
			assert.EqualError(t, rec.finished["https://shop.example/p/1"], tc.wantErr)
			assert.Equal(t, err, rec.doneErr)
		})
	}
}

func TestProcessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	q := queue.New()
	q.Add("https://shop.example/p/1")
	q.Add("https://shop.example/p/2")

	r := &run{extract: func(context.Context, string, func(common.Event)) (common.Event, error) {
		calls++
		cancel()
		return common.CompleteEvent(nil), nil
	}}
	entries, err := r.process(ctx, q, newRecorder())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, calls)
}

func TestPlainReporterSuffix(t *testing.T) {
	var out bytes.Buffer
	rep := newPlainReporter(quietLogger(), &out, []string{"https://shop.example/p/1"})

	rep.Started("https://shop.example/p/1")
	assert.Contains(t, rep.suffix(), "Starting extraction...")

	var wg sync.WaitGroup
	for _, status := range []string{common.StatusLaunching, common.StatusNavigating, common.StatusAnalyzing} {
		status := status
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep.Event("https://shop.example/p/1", common.StatusEvent(status))
			_ = rep.suffix()
		}()
	}
	wg.Wait()

	rep.Event("https://shop.example/p/1", common.StatusEvent(common.StatusProcessing))
	assert.Contains(t, rep.suffix(), common.StatusProcessing)

	rep.Finished("https://shop.example/p/1", nil, nil, "")
	rep.Done("", nil)
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
