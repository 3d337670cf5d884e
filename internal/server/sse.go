package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/schemascrape/internal/telemetry"
)

// SSEWriter helps write Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleStreamLogs streams a job's log entries as SSE. With
// ?backfill=true the persisted entries are replayed first; afterwards
// the stream follows the live telemetry channel until the client
// disconnects or the job reaches a terminal status.
func (s *Server) handleStreamLogs(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.jobIDFromPath(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Attach before backfilling so nothing emitted in between is lost;
	// an entry landing in that window may be delivered twice, which
	// subscribers must tolerate.
	live, cancel := s.broker.Subscribe(jobID)
	defer cancel()

	if r.URL.Query().Get("backfill") == "true" {
		entries, err := s.broker.Backfill(r.Context(), jobID)
		if err != nil {
			_ = sse.WriteEvent("error", map[string]string{"error": err.Error()})
			return
		}
		for _, e := range entries {
			if err := sse.WriteEvent("log", e); err != nil {
				return
			}
		}
	}

	for {
		select {
		case entry, open := <-live:
			if !open {
				return
			}
			if err := sse.WriteEvent("log", entry); err != nil {
				return
			}
			if s.streamDone(r, entry) {
				_ = sse.WriteEvent("complete", map[string]string{"job_id": jobID.String()})
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// streamDone reports whether the stream can end: the job reached a
// terminal status after this entry.
func (s *Server) streamDone(r *http.Request, entry telemetry.Entry) bool {
	j, err := s.store.GetJob(r.Context(), entry.JobID)
	if err != nil || j == nil {
		return false
	}
	return j.Status.Terminal()
}
