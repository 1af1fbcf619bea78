package api

import (
	"encoding/json"
	"net/http"
)

// simFingerRequest is the body of POST /simulator/finger.
type simFingerRequest struct {
	// Token identifies the finger; the same token matches the same template.
	Token string `json:"token"`
}

// simDoorbellRequest is the body of POST /simulator/doorbell.
type simDoorbellRequest struct {
	Pressed bool `json:"pressed"`
}

// simMarkerRequest is the body of POST /simulator/marker.
type simMarkerRequest struct {
	// Marker replaces the pairing marker stored on the simulated sensor,
	// as a sensor swap would.
	Marker string `json:"marker"`
}

// handleSimFinger places a finger on the simulated sensor.
func (s *Server) handleSimFinger(w http.ResponseWriter, r *http.Request) {
	var req simFingerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeBadRequest(w, "token is required")
		return
	}
	s.simulator.PlaceFinger(req.Token)
	w.WriteHeader(http.StatusNoContent)
}

// handleSimLift lifts the finger off the simulated sensor.
func (s *Server) handleSimLift(w http.ResponseWriter, _ *http.Request) {
	s.simulator.LiftFinger()
	w.WriteHeader(http.StatusNoContent)
}

// handleSimDoorbell presses or releases the simulated button.
func (s *Server) handleSimDoorbell(w http.ResponseWriter, r *http.Request) {
	if s.button == nil {
		writeNotFound(w, "doorbell button is not simulated")
		return
	}
	var req simDoorbellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.button.Set(req.Pressed)
	w.WriteHeader(http.StatusNoContent)
}

// handleSimMarker overwrites the simulated sensor's pairing marker.
func (s *Server) handleSimMarker(w http.ResponseWriter, r *http.Request) {
	var req simMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.simulator.OverwriteMarker(r.Context(), req.Marker); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
