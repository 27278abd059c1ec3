package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// Header names the client app sends credentials in.
const (
	headerAPIKey    = "vrno-api-key"
	headerAPIKeyAlt = "x-api-key"
	headerToken     = "x-auth-token"
)

type ctxKey int

const ctxKeyUserID ctxKey = iota

// UserIDFrom returns the user id a consumed one-time token resolved to.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// RequireAPIKey rejects the request before any handler runs unless the
// gateway key is present and valid.
func (h *Handler) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(headerAPIKey)
		if key == "" {
			key = r.Header.Get(headerAPIKeyAlt)
		}
		if err := h.Auth.ValidateAPIKey(key); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken consumes a one-time token for the given purpose and resolves
// it to a user id. Consumption is terminal: a failed request does not return
// the token.
func (h *Handler) RequireToken(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(headerToken)
			if token == "" {
				h.writeError(w, r, apierr.Auth("missing auth token"))
				return
			}
			userID, err := h.Auth.ConsumeToken(r.Context(), token, purpose)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Maintenance returns 503 while the maintenance_mode config is "true".
// The flag is read per request so flipping it needs no restart.
func (h *Handler) Maintenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		val, err := h.Store.GetAdminConfig(r.Context(), "maintenance_mode")
		if err == nil && val == "true" {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "service is under maintenance",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func (h *Handler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.Log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
