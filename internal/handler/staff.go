package handler

import (
	"encoding/json"
	"net/http"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type StaffHandler struct {
	Shops service.ShopService
}

func (h StaffHandler) RegisterRoutes(r chi.Router) {
	r.Post("/staff", h.create)
	r.Get("/staff", h.list)
	r.Put("/staff/{id}", h.update)
	r.Delete("/staff/{id}", h.remove)
}

type staffPayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

func (p staffPayload) toInput() service.StaffInput {
	return service.StaffInput{
		Name:     p.Name,
		Phone:    p.Phone,
		Role:     domain.StaffRole(p.Role),
		IsActive: p.IsActive,
	}
}

func (h StaffHandler) create(w http.ResponseWriter, r *http.Request) {
	var req staffPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	staff, err := h.Shops.CreateStaff(r.Context(), currentShopID(r), req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, staffView(staff))
}

func (h StaffHandler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Shops.ListStaff(r.Context(), currentShopID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		out = append(out, staffView(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h StaffHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req staffPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	staff, err := h.Shops.UpdateStaff(r.Context(), currentShopID(r), id, req.toInput())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, staffView(staff))
}

func (h StaffHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Shops.DeleteStaff(r.Context(), currentShopID(r), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "staff deleted"})
}

func staffView(s *domain.Staff) map[string]any {
	return map[string]any{
		"id":        s.ID,
		"shopId":    s.ShopID,
		"name":      s.Name,
		"phone":     s.Phone,
		"role":      s.Role,
		"isActive":  s.IsActive,
		"createdAt": s.CreatedAt,
		"updatedAt": s.UpdatedAt,
	}
}
