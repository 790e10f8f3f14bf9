package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

// heartbeatEvery is how long the stream may stay silent before a comment
// line is sent.
const heartbeatEvery = 2 * time.Second

// handleSSESnapshot streams a scheduler snapshot every time the tick clock
// advances, until the client disconnects.
// GET /api/v1/sse/snapshot
func (s *Server) handleSSESnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError("SSE not supported"))
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	snap := s.state.Snapshot()
	if err := sendSSEEvent(w, flusher, "snapshot", snap); err != nil {
		s.logger.Debug("sse client disconnected", "error", err)
		return
	}

	ticker := time.NewTicker(s.sseEvery)
	defer ticker.Stop()

	lastTick := snap.Tick
	lastSent := time.Now()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snap = s.state.Snapshot()
			if snap.Tick != lastTick {
				if err := sendSSEEvent(w, flusher, "snapshot", snap); err != nil {
					s.logger.Debug("sse client disconnected", "error", err)
					return
				}
				lastTick = snap.Tick
				lastSent = time.Now()
			} else if time.Since(lastSent) >= heartbeatEvery {
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
				lastSent = time.Now()
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
