package queue

import (
	"net/url"
	"strings"
	"sync"
)

// Queue is a thread-safe FIFO of page URLs that accepts each page once
type Queue struct {
	urls []string
	seen map[string]bool
	mu   sync.Mutex
}

// New creates a new Queue instance
func New() *Queue {
	return &Queue{
		urls: make([]string, 0),
		seen: make(map[string]bool),
	}
}

// Add queues a URL unless an equivalent one was added before. It reports
// whether the URL was queued.
func (q *Queue) Add(rawURL string) bool {
	key := Normalize(rawURL)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen[key] {
		return false
	}
	q.seen[key] = true
	q.urls = append(q.urls, rawURL)
	return true
}

// Next returns the next URL to process
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.urls) == 0 {
		return "", false
	}

	next := q.urls[0]
	q.urls = q.urls[1:]
	return next, true
}

// Pending returns the queued URLs without removing them
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.urls...)
}

// Len returns the current length of the queue
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.urls)
}

// Normalize returns the key two URLs share when they name the same page:
// scheme and host are lower-cased, the fragment is dropped and an empty
// path becomes "/". Unparseable input is returned trimmed.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
