// Package browsertest provides an in-memory browser.Launcher for tests.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/go-scripts/reviews/pkg/browser"
)

// Launcher serves fixed HTML instead of running Chrome
type Launcher struct {
	// HTML is returned by every Snapshot.
	HTML string

	LaunchErr   error
	NavigateErr error
	SnapshotErr error

	mu       sync.Mutex
	sessions []*Session
}

// Launch records and returns a new fake session
func (l *Launcher) Launch(ctx context.Context) (browser.Session, error) {
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{launcher: l}
	l.mu.Lock()
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()
	return s, nil
}

// Sessions returns every session launched so far
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}

// Session is a fake browser.Session
type Session struct {
	launcher *Launcher

	mu        sync.Mutex
	visited   []string
	snapshots int
	closes    int
}

func (s *Session) Navigate(url string, _ time.Duration) error {
	s.mu.Lock()
	s.visited = append(s.visited, url)
	s.mu.Unlock()
	return s.launcher.NavigateErr
}

func (s *Session) Snapshot() (string, error) {
	s.mu.Lock()
	s.snapshots++
	s.mu.Unlock()
	if s.launcher.SnapshotErr != nil {
		return "", s.launcher.SnapshotErr
	}
	return s.launcher.HTML, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Visited lists the URLs passed to Navigate
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.visited...)
}

// Snapshots counts Snapshot calls
func (s *Session) Snapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

// Closed reports whether Close was called at least once
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}
