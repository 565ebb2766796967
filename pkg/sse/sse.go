// Package sse writes Server-Sent Events. The checkout page uses it to follow
// a payment session without polling.
//
//	stream := sse.New(w, r)
//	if stream == nil {
//	    return
//	}
//	stream.Send("status", state)
//	stream.Send("result", map[string]string{"outcome": "success"})
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Stream is one client connection.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
	closed  bool
}

// New sets the event-stream headers and returns the stream. It writes a 500
// and returns nil when w cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, r: r, flusher: flusher}
}

// Send writes a named event with a JSON payload. Writes after the client
// left are dropped.
func (s *Stream) Send(event string, data any) error {
	if s.IsClosed() {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal %s: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		s.closed = true
		return nil
	}
	s.flusher.Flush()
	return nil
}

// Comment writes a comment line, used as a keepalive.
func (s *Stream) Comment(msg string) {
	if s.IsClosed() {
		return
	}
	fmt.Fprintf(s.w, ": %s\n\n", msg)
	s.flusher.Flush()
}

// IsClosed reports whether the client has gone away.
func (s *Stream) IsClosed() bool {
	if s == nil {
		return true
	}
	if !s.closed {
		select {
		case <-s.r.Context().Done():
			s.closed = true
		default:
		}
	}
	return s.closed
}
