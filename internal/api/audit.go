package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-doorbell/internal/audit"
)

// handleListAudit returns a page of audit events, newest first.
//
// Query parameters:
//   - action: filter by action (match_granted, enroll, delete, ring, ...)
//   - slot: filter by template slot
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{Action: q.Get("action")}

	for key, dst := range map[string]*int{
		"slot":   &filter.SlotID,
		"limit":  &filter.Limit,
		"offset": &filter.Offset,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit events", "error", err)
		writeInternalError(w, "failed to list audit events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
