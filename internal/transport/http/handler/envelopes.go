package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-passwordless-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AuthEnvelope wraps successful token-exchange responses.
type AuthEnvelope struct {
	Bearer       string          `json:"Bearer,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Session      *domain.Session `json:"session,omitempty"`
	Message      string          `json:"message,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// toSafeSession returns a copy with the refresh token cleared; the envelope
// carries it once at the top level.
func toSafeSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.RefreshToken = ""
	return &cp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
