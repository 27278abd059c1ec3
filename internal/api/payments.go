package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vrno/tokenmarket/internal/apierr"
)

// CreatePaymentOrder opens a payment-provider order for a token package.
// Nothing is credited until the order is captured.
func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		PackageID string `json:"package_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}
	if req.UserID == "" {
		h.writeError(w, r, apierr.Validation("user_id", "required"))
		return
	}
	if req.PackageID == "" {
		h.writeError(w, r, apierr.Validation("package_id", "required"))
		return
	}

	pkg, err := h.Store.GetTokenPackage(r.Context(), req.PackageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !pkg.Active {
		h.writeError(w, r, apierr.Validation("package_id", "package is not for sale"))
		return
	}

	order, err := h.Payments.CreateOrder(r.Context(), pkg.PriceUSD,
		fmt.Sprintf("%s (%.0f tokens)", pkg.Name, pkg.Tokens))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":    order.ID,
		"status":      order.Status,
		"approve_url": order.ApproveURL,
		"package":     pkg,
	})
}

// CapturePaymentOrder captures an approved order, credits the package's
// tokens and sends receipts. The credit is final once recorded; a receipt
// failure surfaces as an error but does not undo it.
func (h *Handler) CapturePaymentOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		PackageID string `json:"package_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apierr.Validation("body", "invalid JSON"))
		return
	}
	if req.UserID == "" {
		h.writeError(w, r, apierr.Validation("user_id", "required"))
		return
	}
	if req.PackageID == "" {
		h.writeError(w, r, apierr.Validation("package_id", "required"))
		return
	}
	if tokenUser := UserIDFrom(r.Context()); tokenUser != "" && tokenUser != req.UserID {
		h.writeError(w, r, apierr.Auth("token does not match user"))
		return
	}

	pkg, err := h.Store.GetTokenPackage(r.Context(), req.PackageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	capture, err := h.Payments.CaptureOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if capture.Status != "COMPLETED" {
		h.writeError(w, r, apierr.Validation("order", "capture not completed: "+capture.Status))
		return
	}

	tx, err := h.Store.RecordPurchase(r.Context(), req.UserID, pkg.Tokens, pkg.PriceUSD)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.sendReceipts(r, req.UserID, pkg.Name, pkg.Tokens); err != nil {
		h.writeJSON(w, apierr.Status(err), map[string]any{
			"error":       apierr.Message(err),
			"transaction": tx,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, tx)
}

func (h *Handler) sendReceipts(r *http.Request, userID, pkgName string, tokens float64) error {
	user, err := h.Store.GetUserByID(r.Context(), userID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your purchase of %s is complete. %.0f tokens were added to your balance.", pkgName, tokens)
	if user.Email != "" {
		if err := h.Email.Send(r.Context(), user.Email, "VRNO purchase receipt", body); err != nil {
			return err
		}
	}
	if user.Phone != "" {
		if err := h.SMS.Send(r.Context(), user.Phone, body); err != nil {
			return err
		}
	}
	return nil
}
