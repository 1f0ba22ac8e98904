package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// sseWriter writes the chat stream's wire frames: each event is a bare
// `data: <json>` frame and the stream ends with a literal
// `data: [DONE]` terminal. It implements chat.Sink.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	closed  bool
}

// newSSEWriter commits the SSE response headers and returns the writer.
// Headers go out before any work happens so later failures can still be
// delivered as in-band frames.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// Send writes one event frame.
func (s *sseWriter) Send(event any) error {
	if s.closed {
		return errors.New("send on closed stream")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\r\n\r\n", data); err != nil {
		return fmt.Errorf("writing event frame: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// Close writes the terminal frame. It is idempotent; the terminal marker
// goes out exactly once per stream.
func (s *sseWriter) Close() {
	if s.closed {
		return
	}
	s.closed = true
	fmt.Fprint(s.w, "data: [DONE]\r\n\r\n")
	s.flusher.Flush()
}
