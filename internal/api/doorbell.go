package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/controller"
)

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	controller.Status
	PairingValid  bool   `json:"pairing_valid"`
	MQTTConnected bool   `json:"mqtt_connected"`
	Hostname      string `json:"hostname"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// LogsResponse is the body of GET /logs.
type LogsResponse struct {
	// Entries are newest first, as rendered.
	Entries []string `json:"entries"`

	// Rendered is the newest-first view pushed on the message channel.
	Rendered string `json:"rendered"`
}

// handleStatus returns the controller mode, pairing and connectivity.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := StatusResponse{
		Status:        s.ctrl.Status(),
		MQTTConnected: s.mqttConnected(),
		Hostname:      s.currentHostname(r),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	state, err := s.settings.PairingState(ctx)
	if err != nil {
		s.logger.Warn("reading pairing state failed", "error", err)
	}
	resp.PairingValid = err == nil && state.Valid

	writeJSON(w, http.StatusOK, resp)
}

// handleLogs returns the recent notification history.
func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LogsResponse{
		Entries:  s.notifications.History(),
		Rendered: s.notifications.RenderHistory(),
	})
}

// currentHostname returns the stored hostname, or the configured default
// when none can be read.
func (s *Server) currentHostname(r *http.Request) string {
	network, err := s.settings.LoadNetwork(r.Context())
	if err != nil || network.Hostname == "" {
		return s.hostname
	}
	return network.Hostname
}
