package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/pkg/common"
)

// ErrIncompleteStream means the server closed the stream before sending a
// complete or error event.
var ErrIncompleteStream = errors.New("stream ended without a terminal event")

// Client consumes the /api/reviews stream of a remote server
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Stream requests an extraction of page, calls fn for every event and
// returns the terminal one. An error event is returned as an event, not as
// an error.
func (c *Client) Stream(ctx context.Context, page string, fn func(common.Event)) (common.Event, error) {
	endpoint := c.baseURL + "/api/reviews?" + url.Values{"page": {page}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return common.Event{}, fmt.Errorf("invalid server URL: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return common.Event{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if resp.StatusCode == http.StatusBadRequest && body.Error != "" {
			return common.Event{}, &errs.ValidationError{Field: "page", Message: body.Error}
		}
		return common.Event{}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var event common.Event
		if err := dec.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return common.Event{}, ErrIncompleteStream
			}
			return common.Event{}, fmt.Errorf("failed to decode event: %w", err)
		}
		if fn != nil {
			fn(event)
		}
		if event.Terminal() {
			return event, nil
		}
	}
}
