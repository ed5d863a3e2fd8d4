package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-scripts/reviews/pkg/common"
)

// eventWriter frames events as newline-delimited JSON. The terminal event
// is written without a trailing newline.
type eventWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func newEventWriter(w io.Writer) *eventWriter {
	ew := &eventWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		ew.flusher = f
	}
	return ew
}

func (ew *eventWriter) Write(e common.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if !e.Terminal() {
		data = append(data, '\n')
	}

	if _, err := ew.w.Write(data); err != nil {
		return err
	}
	if ew.flusher != nil {
		ew.flusher.Flush()
	}
	return nil
}
