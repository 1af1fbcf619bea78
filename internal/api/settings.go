package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/nerrad567/gray-logic-doorbell/internal/settings"
)

// hostnamePattern is a single RFC 1123 label.
var hostnamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?$`)

// settingsResponse is the body of GET /settings. The broker password is
// never returned.
type settingsResponse struct {
	MQTTServer      string `json:"mqtt_server"`
	MQTTUsername    string `json:"mqtt_username"`
	MQTTPasswordSet bool   `json:"mqtt_password_set"`
	MQTTRootTopic   string `json:"mqtt_root_topic"`
	NTPServer       string `json:"ntp_server"`
	Hostname        string `json:"hostname"`
}

// settingsRequest is the body of PUT /settings. Absent fields keep their
// stored value.
type settingsRequest struct {
	MQTTServer    *string `json:"mqtt_server"`
	MQTTUsername  *string `json:"mqtt_username"`
	MQTTPassword  *string `json:"mqtt_password"`
	MQTTRootTopic *string `json:"mqtt_root_topic"`
	NTPServer     *string `json:"ntp_server"`
	Hostname      *string `json:"hostname"`
}

// handleGetSettings returns the operator settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	app, err := s.settings.LoadApp(r.Context())
	if err != nil {
		s.logger.Error("loading settings failed", "error", err)
		writeInternalError(w, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		MQTTServer:      app.MQTTServer,
		MQTTUsername:    app.MQTTUsername,
		MQTTPasswordSet: app.MQTTPassword != "",
		MQTTRootTopic:   app.MQTTRootTopic,
		NTPServer:       app.NTPServer,
		Hostname:        s.currentHostname(r),
	})
}

// handleUpdateSettings stores the operator settings and restarts so the
// message bus reconnects with them.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	ctx := r.Context()
	app, err := s.settings.LoadApp(ctx)
	if err != nil {
		s.logger.Error("loading settings failed", "error", err)
		writeInternalError(w, "failed to load settings")
		return
	}
	req.applyTo(&app)

	if err := s.settings.SaveApp(ctx, app); err != nil {
		s.logger.Error("saving settings failed", "error", err)
		writeInternalError(w, "failed to save settings")
		return
	}
	if req.Hostname != nil {
		if err := s.settings.SaveNetwork(ctx, settings.NetworkSettings{Hostname: *req.Hostname}); err != nil {
			s.logger.Error("saving network settings failed", "error", err)
			writeInternalError(w, "failed to save settings")
			return
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "saved", "restart": true})
	s.requestRestart("settings changed")
}

func (req *settingsRequest) validate() error {
	if req.MQTTRootTopic != nil {
		topic := strings.TrimSpace(*req.MQTTRootTopic)
		if topic == "" {
			return fmt.Errorf("mqtt_root_topic must not be empty")
		}
		if strings.ContainsAny(topic, "+#") {
			return fmt.Errorf("mqtt_root_topic must not contain wildcards")
		}
	}
	if req.Hostname != nil && !hostnamePattern.MatchString(*req.Hostname) {
		return fmt.Errorf("hostname must be letters, digits and hyphens, at most 63 characters")
	}
	return nil
}

func (req *settingsRequest) applyTo(app *settings.AppSettings) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&app.MQTTServer, req.MQTTServer)
	set(&app.MQTTUsername, req.MQTTUsername)
	set(&app.MQTTRootTopic, req.MQTTRootTopic)
	set(&app.NTPServer, req.NTPServer)
	if req.MQTTPassword != nil {
		app.MQTTPassword = *req.MQTTPassword
	}
}
