package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
)

const defaultHistoryLimit = 100

// ListCollectibles returns every collectible in the marketplace.
func (h *Handler) ListCollectibles(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListCollectibles(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

// GetCollectible returns one collectible.
func (h *Handler) GetCollectible(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.GetCollectible(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

// ListPrices returns current prices keyed by collectible name.
func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.Store.ListPrices(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, prices)
}

// ListImages returns image URLs keyed by collectible name.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.Store.ListImages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, images)
}

// GetPriceHistory returns recent price samples for a collectible.
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, apierr.Validation("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	points, err := h.Store.GetPriceHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

// GetMarketSummary returns the rolled-up market view of a collectible.
func (h *Handler) GetMarketSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Store.GetMarketSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}
