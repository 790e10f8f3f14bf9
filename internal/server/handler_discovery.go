package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "cannonbot API",
		Version:     "v1",
		Description: "Operator API for the cannon robot: scheduler state, event journal and simulated input",
		Endpoints: []endpointInfo{
			{"/api/v1/health", []string{"GET"}, "Server health and tick clock"},
			{"/api/v1/resources", []string{"GET"}, "Owner of every resource"},
			{"/api/v1/actions", []string{"GET"}, "Active actions with their composition trees"},
			{"/api/v1/actions/{handle}/cancel", []string{"POST"}, "Cancel an active action"},
			{"/api/v1/events", []string{"GET"}, "Journal events. Accepts ?run, ?kind, ?resource and ?limit"},
			{"/api/v1/runs", []string{"GET"}, "Journal runs"},
			{"/api/v1/input/buttons/{id}", []string{"POST"}, `Press or release a gamepad button: {"action":"press"|"release"}`},
			{"/api/v1/input/axes/{id}", []string{"POST"}, `Set a gamepad axis: {"value":x}`},
			{"/api/v1/sse/snapshot", []string{"GET"}, "Scheduler snapshots as Server-Sent Events"},
		},
	})
}
