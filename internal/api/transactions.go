package api

import (
	"encoding/json"
	"net/http"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// CreateTransaction executes a buy or sell. The request is validated in full
// before the store is touched; a malformed trade never reaches the database.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string  `json:"user_id"`
		AssetID string  `json:"asset_id"`
		Type    string  `json:"type"`
		Amount  float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}

	switch {
	case req.UserID == "":
		h.writeError(w, r, apierr.Validation("user_id", "required"))
		return
	case req.AssetID == "":
		h.writeError(w, r, apierr.Validation("asset_id", "required"))
		return
	case req.Type != models.TxBuy && req.Type != models.TxSell:
		h.writeError(w, r, apierr.Validation("type", "must be buy or sell"))
		return
	case req.Amount <= 0:
		h.writeError(w, r, apierr.Validation("amount", "must be positive"))
		return
	}

	// The consumed token must belong to the user named in the trade.
	if tokenUser := UserIDFrom(r.Context()); tokenUser != "" && tokenUser != req.UserID {
		h.writeError(w, r, apierr.Auth("token does not match user"))
		return
	}

	tx, err := h.Store.ExecuteTrade(r.Context(), req.UserID, req.AssetID, req.Type, req.Amount)
	if err != nil {
		// A failed trade still records its transaction row; surface both.
		if tx != nil {
			h.writeJSON(w, apierr.Status(err), map[string]any{
				"error":       apierr.Message(err),
				"transaction": tx,
			})
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tx)
}
