package api

import (
	"net/http"
)

// handlePairing pairs the doorbell with the attached sensor anew.
func (s *Server) handlePairing(w http.ResponseWriter, r *http.Request) {
	ok, err := s.ctrl.Repair(r.Context())
	if err != nil {
		s.logger.Warn("re-pairing failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paired": ok})
}

// handleFactoryReset erases all templates and settings, then restarts.
// The restart follows even when a step fails; failures are reported on
// the message channel and in the response.
func (s *Server) handleFactoryReset(w http.ResponseWriter, r *http.Request) {
	err := s.ctrl.FactoryReset(r.Context(), s.settings.DeleteApp)
	if err != nil {
		s.logger.Error("factory reset incomplete", "error", err)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "reset",
		"complete": err == nil,
		"restart":  true,
	})
	s.requestRestart("factory reset")
}

// handleReboot restarts the doorbell.
func (s *Server) handleReboot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusAccepted, map[string]any{"restart": true})
	s.requestRestart("operator request")
}
