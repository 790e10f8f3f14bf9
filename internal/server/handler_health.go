package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Tick      uint64 `json:"tick"`
	Clock     string `json:"clock"`
	Journal   string `json:"journal"`
	Input     string `json:"input"`
	RunID     string `json:"run_id,omitempty"`
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.state.Snapshot()
	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Tick:      snap.Tick,
		Clock:     snap.Clock.String(),
		Journal:   availability(s.journal != nil),
		Input:     availability(s.input != nil),
		RunID:     s.runID,
	})
}
