package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/reviews/internal/errs"
)

func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome or Chromium found in PATH")
	return ""
}

func TestChromeSnapshotsRenderedDOM(t *testing.T) {
	execPath := findChrome(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="reviews"></div>
<script>document.getElementById("reviews").innerHTML = '<p class="review">Rendered by script</p>';</script>
</body></html>`)
	}))
	defer server.Close()

	launcher := NewChrome(Options{Headless: true, ExecPath: execPath})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := launcher.Launch(ctx)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Navigate(server.URL, 10*time.Second))

	html, err := session.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, html, `<p class="review">Rendered by script</p>`)

	assert.NoError(t, session.Close())
	assert.NoError(t, session.Close())
}

func TestChromeNavigationTimeout(t *testing.T) {
	execPath := findChrome(t)

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	launcher := NewChrome(Options{Headless: true, ExecPath: execPath})

	session, err := launcher.Launch(context.Background())
	require.NoError(t, err)
	defer session.Close()

	err = session.Navigate(server.URL, 500*time.Millisecond)
	require.Error(t, err)

	var timeout *errs.NavigationTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, server.URL, timeout.URL)
	assert.Equal(t, errs.KindNavigationTimeout, errs.Kind(err))
}
