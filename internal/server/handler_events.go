package server

import (
	"net/http"
	"strconv"

	"github.com/me/cannonbot/internal/journal"
	"github.com/me/cannonbot/pkg/model"
)

// allRuns disables the default run filter on /events.
const allRuns = "all"

// handleListEvents returns journal events, newest last.
// GET /api/v1/events?run=&kind=&resource=&limit=
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.journal == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("journal disabled"))
		return
	}

	q := r.URL.Query()
	filter := model.EventFilter{
		RunID:    s.runID,
		Kind:     model.EventKind(q.Get("kind")),
		Resource: model.ResourceID(q.Get("resource")),
	}
	switch run := q.Get("run"); run {
	case "":
	case allRuns:
		filter.RunID = ""
	default:
		filter.RunID = run
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("unknown event kind %q", filter.Kind))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid limit %q", v))
			return
		}
		filter.Limit = n
	}

	records, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list events", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if records == nil {
		records = []journal.Record{}
	}
	respondOK(w, reqID, records)
}

// handleListRuns returns every journal run.
// GET /api/v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.journal == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("journal disabled"))
		return
	}
	runs, err := s.journal.Runs(r.Context())
	if err != nil {
		s.logger.Error("list runs", "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if runs == nil {
		runs = []journal.Run{}
	}
	respondOK(w, reqID, runs)
}
