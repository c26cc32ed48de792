// Package sse writes Server-Sent Events and fans events out to subscribers.
//
//	stream := sse.New(w, r)
//	if stream == nil {
//	    return
//	}
//	events, cancel := broker.Subscribe()
//	defer cancel()
//	for {
//	    select {
//	    case <-r.Context().Done():
//	        return
//	    case ev := <-events:
//	        stream.SendEvent(ev)
//	    }
//	}
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Event is one message on the stream. ID becomes the client's Last-Event-ID.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// NewEvent JSON-encodes data into an Event.
func NewEvent(id, name string, data any) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("sse: marshal: %w", err)
	}
	return Event{ID: id, Name: name, Data: payload}, nil
}

// Stream is an open SSE response to one client.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
}

// New sets the event-stream headers and flushes them. It writes a 500 and
// returns nil when w cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
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

// LastEventID returns the cursor the client resumes from: the Last-Event-ID
// header set by EventSource on reconnect, or the last_event_id query param.
func LastEventID(r *http.Request) string {
	if id := r.Header.Get("Last-Event-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("last_event_id")
}

// SendEvent writes ev and flushes it.
func (s *Stream) SendEvent(ev Event) error {
	var b strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(string(ev.Data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := fmt.Fprint(s.w, b.String()); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// Comment writes an SSE comment line, used as a keepalive.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// Done is closed when the client goes away.
func (s *Stream) Done() <-chan struct{} { return s.r.Context().Done() }
