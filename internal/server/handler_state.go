package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/cannonbot/internal/scheduler"
	"github.com/me/cannonbot/pkg/model"
)

// handleListResources returns the owner of every resource.
// GET /api/v1/resources
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.state.Snapshot().Resources)
}

// handleListActions returns the active top-level actions.
// GET /api/v1/actions
func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.state.Snapshot().Actions)
}

type cancelResponse struct {
	Handle    scheduler.Handle `json:"handle"`
	Action    string           `json:"action"`
	Cancelled bool             `json:"cancelled"`
}

// handleCancelAction interrupts an active action on the tick goroutine.
// Cancelling a fallback is allowed; it is re-installed on the next tick.
// POST /api/v1/actions/{handle}/cancel
func (s *Server) handleCancelAction(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	raw := chi.URLParam(r, "handle")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid action handle %q", raw))
		return
	}
	if s.loop == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("tick loop not attached"))
		return
	}

	h := scheduler.Handle(n)
	var name string
	var cancelled bool
	err = s.loop.Submit(r.Context(), func(sched *scheduler.Scheduler) {
		if a, ok := sched.Action(h); ok {
			name = a.Name()
			cancelled = sched.Cancel(h)
		}
	})
	if err != nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError(err.Error()))
		return
	}
	if !cancelled {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("action", raw))
		return
	}
	s.logger.Info("action cancelled by operator", "handle", h, "action", name)
	respondOK(w, reqID, cancelResponse{Handle: h, Action: name, Cancelled: true})
}
