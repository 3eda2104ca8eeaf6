package handler

import (
	"encoding/json"
	"net/http"

	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth service.AuthService
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

// RegisterProtectedRoutes carries the endpoints any signed-in user may
// call.
func (h AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/auth/change-password", h.changePassword)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := h.Auth.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payload := map[string]any{
		"accessToken": res.AccessToken,
		"expiresAt":   res.ExpiresAt,
		"user": map[string]any{
			"id":           res.User.ID,
			"email":        res.User.Email,
			"isSuperAdmin": res.User.IsSuperAdmin,
			"shopId":       res.User.ShopID,
		},
	}
	if res.Shop != nil {
		payload["shop"] = shopView(res.Shop)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), currentUserID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
