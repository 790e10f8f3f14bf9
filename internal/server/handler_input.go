package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/me/cannonbot/internal/hardware"
	"github.com/me/cannonbot/pkg/model"
)

const maxInputBody = 1 << 10

type buttonRequest struct {
	Action string `json:"action"`
}

type buttonResponse struct {
	Button hardware.Button `json:"button"`
	Action string          `json:"action"`
}

type axisRequest struct {
	Value *float64 `json:"value"`
}

type axisResponse struct {
	Axis  hardware.Axis `json:"axis"`
	Value float64       `json:"value"`
}

// handleButton presses or releases a simulated gamepad button. A press is
// seen by the bindings on the next tick.
// POST /api/v1/input/buttons/{id}
func (s *Server) handleButton(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.input == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("input injection disabled"))
		return
	}
	id, err := hardware.ParseButton(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("button", chi.URLParam(r, "id")))
		return
	}

	var req buttonRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody)).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON: %v", err))
		return
	}
	switch req.Action {
	case "press":
		s.input.Press(id)
	case "release":
		s.input.Release(id)
	default:
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("action must be press or release, got %q", req.Action))
		return
	}
	s.logger.Debug("button input", "button", id, "action", req.Action)
	respondAccepted(w, reqID, buttonResponse{Button: id, Action: req.Action})
}

// handleAxis sets a simulated gamepad axis.
// POST /api/v1/input/axes/{id}
func (s *Server) handleAxis(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if s.input == nil {
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewUnavailableError("input injection disabled"))
		return
	}
	id, err := hardware.ParseAxis(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("axis", chi.URLParam(r, "id")))
		return
	}

	var req axisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBody)).Decode(&req); err != nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid JSON: %v", err))
		return
	}
	if req.Value == nil {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("value is required"))
		return
	}
	if v := *req.Value; v < -1 || v > 1 {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("value %v out of range [-1,1]", v))
		return
	}
	s.input.SetAxis(id, *req.Value)
	respondAccepted(w, reqID, axisResponse{Axis: id, Value: *req.Value})
}
