package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrno/tokenmarket/internal/apierr"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error().Err(err).Msg("encode response")
	}
}

// writeError maps the error taxonomy to HTTP in one place. Internal detail
// never leaves the process for 5xx errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apierr.Status(err)
	if status >= 500 {
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		h.Log.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	h.writeJSON(w, status, map[string]string{"error": apierr.Message(err)})
}
