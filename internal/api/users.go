package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
)

const defaultMovementLimit = 50

// GetUser returns the account for a username.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	user, err := h.Store.GetUserByUsername(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// GetBalance returns a user's token balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	balance, err := h.Store.GetBalance(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// GetUserAssets returns a user's holdings with live prices.
func (h *Handler) GetUserAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.GetUserAssets(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assets)
}

// GetUserReferrals returns the referrals a user has made.
func (h *Handler) GetUserReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.Store.GetUserReferrals(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, referrals)
}

// GetUserMovements returns a user's recent transactions, newest first.
func (h *Handler) GetUserMovements(w http.ResponseWriter, r *http.Request) {
	limit := defaultMovementLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, apierr.Validation("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	movements, err := h.Store.GetUserMovements(r.Context(), chi.URLParam(r, "user"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movements)
}

// GetPortfolioGains returns gains across a user's holdings.
func (h *Handler) GetPortfolioGains(w http.ResponseWriter, r *http.Request) {
	gains, err := h.Store.GetPortfolioGains(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, gains)
}

// SecureBalance returns the balance of the user a one-time token resolved to.
func (h *Handler) SecureBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Store.GetBalanceByID(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// SecureAssets returns the holdings of the user a one-time token resolved to.
func (h *Handler) SecureAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.GetUserAssets(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assets)
}
