package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/notify"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxLogoBytes = 5 << 20

type OwnerLinkStore interface {
	Create(ctx context.Context, token string, shopID int64, expiresAt time.Time) (*domain.OwnerToken, error)
}

// ShopHandler carries the owner-facing shop endpoints.
type ShopHandler struct {
	Shops     service.ShopService
	Auth      service.AuthService
	Reports   service.ReportService
	OwnerLink OwnerLinkStore
	BotName   string
	UploadDir string
}

func (h ShopHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shop/profile", h.profile)
	r.Put("/shop/profile", h.updateProfile)
	r.Post("/shop/logo", h.uploadLogo)
	r.Post("/shop/pin/verify", h.verifyPin)
	r.Put("/shop/pin", h.updatePin)
	r.Get("/shop/report", h.report)
	r.Get("/shop/staff-performance", h.staffPerformance)
	r.Post("/shop/owner-link", h.ownerLink)
}

func (h ShopHandler) profile(w http.ResponseWriter, r *http.Request) {
	shop, err := h.Shops.GetShop(r.Context(), currentShopID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(shop))
}

func (h ShopHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShopName   *string `json:"shopName"`
		OwnerName  *string `json:"ownerName"`
		Phone      *string `json:"phone"`
		Address    *string `json:"address"`
		CustomRule *string `json:"customRule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	shop, err := h.Shops.UpdateProfile(r.Context(), currentShopID(r), service.UpdateProfileInput{
		ShopName:   req.ShopName,
		OwnerName:  req.OwnerName,
		Phone:      req.Phone,
		Address:    req.Address,
		CustomRule: req.CustomRule,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(shop))
}

// uploadLogo stores the image under the upload dir and removes the shop's
// previous logo file once the new reference is saved.
func (h ShopHandler) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "logo file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		writeError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	shopID := currentShopID(r)
	name := fmt.Sprintf("shop_%d_%d%s", shopID, time.Now().UnixMilli(), ext)
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, io.LimitReader(file, maxLogoBytes)); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logoURL := "/uploads/" + name
	old, err := h.Shops.SetLogo(r.Context(), shopID, logoURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.HasPrefix(old, "/uploads/") {
		_ = os.Remove(filepath.Join(h.UploadDir, filepath.Base(old)))
	}
	writeJSON(w, http.StatusOK, map[string]string{"logoUrl": logoURL})
}

func (h ShopHandler) verifyPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Auth.VerifyPin(r.Context(), currentShopID(r), req.Pin); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func (h ShopHandler) updatePin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPin string `json:"currentPin"`
		NewPin     string `json:"newPin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Auth.UpdatePin(r.Context(), currentShopID(r), req.CurrentPin, req.NewPin); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "pin updated"})
}

func (h ShopHandler) report(w http.ResponseWriter, r *http.Request) {
	kind, ref, err := periodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	report, err := h.Reports.ShopReport(r.Context(), currentShopID(r), kind, ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h ShopHandler) staffPerformance(w http.ResponseWriter, r *http.Request) {
	kind, ref, err := periodQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	rows, err := h.Reports.StaffPerformance(r.Context(), currentShopID(r), kind, ref)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ownerLink mints a fresh deep link the owner scans to subscribe their
// Telegram chat to the evening summary.
func (h ShopHandler) ownerLink(w http.ResponseWriter, r *http.Request) {
	token, err := notify.NewOwnerToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	expires := time.Now().AddDate(0, 0, 30)
	if _, err := h.OwnerLink.Create(r.Context(), token, currentShopID(r), expires); err != nil {
		writeServiceError(w, err)
		return
	}
	payload := notify.OwnerStartPayload(token)
	writeJSON(w, http.StatusOK, map[string]any{
		"payload":   payload,
		"link":      notify.BotLink(h.BotName, payload),
		"expiresAt": expires,
	})
}

func shopView(s *domain.Shop) map[string]any {
	return map[string]any{
		"id":                 s.ID,
		"shopName":           s.ShopName,
		"ownerName":          s.OwnerName,
		"phone":              s.Phone,
		"email":              s.Email,
		"address":            s.Address,
		"logoUrl":            s.LogoURL,
		"customRule":         s.CustomRule,
		"isActive":           s.IsActive,
		"subscriptionStart":  s.SubscriptionStart,
		"subscriptionExpire": s.SubscriptionExpire,
		"subscriptionPlan":   s.SubscriptionPlan,
		"subscriptionClass":  s.SubscriptionClass,
		"maxStaffAllowed":    s.MaxStaffAllowed,
		"paymentHistory":     s.PaymentHistory,
		"createdAt":          s.CreatedAt,
		"updatedAt":          s.UpdatedAt,
	}
}
