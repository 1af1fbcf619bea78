package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handleLogin checks the admin password and returns a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Password == "" {
		writeBadRequest(w, "password is required")
		return
	}

	token, expires, err := s.auth.Login(req.Password)
	if err != nil {
		s.logger.Warn("admin login rejected", "error", err, "remote", r.RemoteAddr)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expires).Seconds()),
	})
}
