package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-doorbell/internal/controller"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// maxLabelLength bounds fingerprint names.
const maxLabelLength = 64

// enrollRequest is the body of POST /fingerprints/enroll.
type enrollRequest struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// renameRequest is the body of PATCH /fingerprints/{id}.
type renameRequest struct {
	Name string `json:"name"`
}

// handleListFingerprints returns the cached template list.
func (s *Server) handleListFingerprints(w http.ResponseWriter, _ *http.Request) {
	list := s.ctrl.Fingerprints()
	writeJSON(w, http.StatusOK, map[string]any{
		"fingerprints": list,
		"count":        len(list),
	})
}

// handleEnroll queues an enrollment. The outcome arrives on the message
// channel once the finger has been read.
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	name, err := cleanLabel(req.Name)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if !controller.ValidSlot(req.ID) {
		writeBadRequest(w, fmt.Sprintf("id must be between 1 and %d", sensor.MaxSlot))
		return
	}

	if err := s.ctrl.Handle(controller.EnrollRequested{Slot: req.ID, Label: name}); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "enrolling",
		"id":     req.ID,
		"name":   name,
	})
}

// handleRenameFingerprint changes a template's name.
func (s *Server) handleRenameFingerprint(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	name, err := cleanLabel(req.Name)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.ctrl.RenameFingerprint(r.Context(), slot, name); err != nil {
		s.logger.Warn("renaming fingerprint failed", "slot", slot, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sensor.Fingerprint{ID: slot, Name: name})
}

// handleDeleteFingerprint removes one template.
func (s *Server) handleDeleteFingerprint(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}

	if err := s.ctrl.DeleteFingerprint(r.Context(), slot); err != nil {
		s.logger.Warn("deleting fingerprint failed", "slot", slot, "error", err)
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllFingerprints empties the sensor.
func (s *Server) handleDeleteAllFingerprints(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.DeleteAllFingerprints(r.Context()); err != nil {
		s.logger.Error("deleting all fingerprints failed", "error", err)
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// slotParam parses the {id} path parameter, writing a 400 on failure.
func slotParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || !controller.ValidSlot(slot) {
		writeBadRequest(w, fmt.Sprintf("id must be between 1 and %d", sensor.MaxSlot))
		return 0, false
	}
	return slot, true
}

// cleanLabel trims a fingerprint name and checks its length.
func cleanLabel(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("name is required")
	case len(name) > maxLabelLength:
		return "", fmt.Errorf("name must be at most %d characters", maxLabelLength)
	}
	return name, nil
}
