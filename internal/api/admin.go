package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
	"github.com/vrno/tokenmarket/internal/models"
)

// ListAdminConfigs returns every runtime config flag.
func (h *Handler) ListAdminConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListAdminConfigs(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, configs)
}

// GetAdminConfig returns one config value.
func (h *Handler) GetAdminConfig(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	val, err := h.Store.GetAdminConfig(r.Context(), key)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"config_key": key, "config_value": val})
}

// SetAdminConfig creates or updates a config flag.
func (h *Handler) SetAdminConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"config_key"`
		Value string `json:"config_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}
	if req.Key == "" {
		h.writeError(w, r, apierr.Validation("config_key", "required"))
		return
	}

	if err := h.Store.SetAdminConfig(r.Context(), req.Key, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"config_key": req.Key, "config_value": req.Value})
}

// MaintenanceStatus reports whether the gateway is in maintenance mode.
// Public so client apps can show a banner without credentials.
func (h *Handler) MaintenanceStatus(w http.ResponseWriter, r *http.Request) {
	val, err := h.Store.GetAdminConfig(r.Context(), "maintenance_mode")
	if err != nil && apierr.Status(err) != http.StatusNotFound {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"maintenance": val == "true"})
}

// ListTokenPackages returns the purchasable token bundles.
func (h *Handler) ListTokenPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.Store.ListTokenPackages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, packages)
}

// GetTokenPackage returns one token package.
func (h *Handler) GetTokenPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.Store.GetTokenPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pkg)
}

func decodePackage(r *http.Request) (*models.TokenPackage, error) {
	var pkg models.TokenPackage
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		return nil, apierr.Validation("body", "invalid JSON")
	}
	if pkg.Name == "" {
		return nil, apierr.Validation("name", "required")
	}
	if pkg.Tokens <= 0 {
		return nil, apierr.Validation("tokens", "must be positive")
	}
	if pkg.PriceUSD <= 0 {
		return nil, apierr.Validation("price_usd", "must be positive")
	}
	return &pkg, nil
}

// CreateTokenPackage adds a new package.
func (h *Handler) CreateTokenPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := decodePackage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.Store.CreateTokenPackage(r.Context(), pkg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateTokenPackage rewrites an existing package.
func (h *Handler) UpdateTokenPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := decodePackage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	pkg.ID = chi.URLParam(r, "id")

	if err := h.Store.UpdateTokenPackage(r.Context(), pkg); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pkg)
}

// DeleteTokenPackage removes a package.
func (h *Handler) DeleteTokenPackage(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteTokenPackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReferralCodes returns every signup code.
func (h *Handler) ListReferralCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.Store.ListReferralCodes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, codes)
}

// CreateReferralCode issues a new signup code.
func (h *Handler) CreateReferralCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code    string `json:"code"`
		OwnerID string `json:"owner_id"`
		MaxUses int    `json:"max_uses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}
	if req.Code == "" {
		h.writeError(w, r, apierr.Validation("code", "required"))
		return
	}
	if req.MaxUses <= 0 {
		h.writeError(w, r, apierr.Validation("max_uses", "must be positive"))
		return
	}

	code, err := h.Store.CreateReferralCode(r.Context(), req.Code, req.OwnerID, req.MaxUses)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, code)
}
