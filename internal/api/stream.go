package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/RichardoC/askweb/internal/search"
)

// streamWriter frames the response as server-sent events: "think" events
// carry progress updates, "content" events carry response text deltas,
// and a final "done" event closes the stream. Every event is flushed
// immediately; no batching beyond what the transport requires.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter, flusher http.Flusher) *streamWriter {
	return &streamWriter{w: w, flusher: flusher}
}

func (s *streamWriter) WriteThink(p search.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.writeEvent("think", data)
}

func (s *streamWriter) WriteContent(chunk string) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	return s.writeEvent("content", data)
}

// writeDone is best-effort: a disconnected client is not an error.
func (s *streamWriter) writeDone() {
	_ = s.writeEvent("done", []byte("{}"))
}

func (s *streamWriter) writeEvent(event string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
