package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// IssueToken mints a one-time token for a user and purpose. The raw token is
// returned exactly once; only its hash is stored.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"user_id"`
		Purpose string `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}
	if req.UserID == "" {
		h.writeError(w, r, apierr.Validation("user_id", "required"))
		return
	}
	if req.Purpose == "" {
		h.writeError(w, r, apierr.Validation("purpose", "required"))
		return
	}

	token, expiresAt, err := h.Auth.IssueToken(r.Context(), req.UserID, req.Purpose)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
