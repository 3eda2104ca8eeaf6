package handler

import (
	"encoding/json"
	"net/http"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"

	"github.com/go-chi/chi/v5"
)

// PlanHandler serves the public plan catalog and the super-admin
// plan management endpoints.
type PlanHandler struct {
	Plans repository.PlanRepository
}

func (h PlanHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plans", h.listActive)
}

func (h PlanHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/admin/plans", h.listAll)
	r.Post("/admin/plans", h.create)
	r.Put("/admin/plans/{id}", h.update)
	r.Delete("/admin/plans/{id}", h.remove)
}

type planPayload struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           int64    `json:"price"`
	Currency        string   `json:"currency"`
	DurationDays    int      `json:"durationDays"`
	MaxStaffAllowed int      `json:"maxStaffAllowed"`
	Features        []string `json:"features"`
	IsActive        bool     `json:"isActive"`
	IsPopular       bool     `json:"isPopular"`
	SortOrder       int      `json:"sortOrder"`
}

func (p planPayload) toParams() repository.SavePlanParams {
	return repository.SavePlanParams{
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Currency:        p.Currency,
		DurationDays:    p.DurationDays,
		MaxStaffAllowed: p.MaxStaffAllowed,
		Features:        p.Features,
		IsActive:        p.IsActive,
		IsPopular:       p.IsPopular,
		SortOrder:       p.SortOrder,
	}
}

func (h PlanHandler) listActive(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Plans.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(plans))
	for i := range plans {
		out = append(out, planView(&plans[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h PlanHandler) listAll(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	plans, total, err := h.Plans.ListAll(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(plans))
	for i := range plans {
		out = append(out, planView(&plans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plans": out,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h PlanHandler) create(w http.ResponseWriter, r *http.Request) {
	var req planPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	plan, err := h.Plans.Create(r.Context(), req.toParams())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, planView(plan))
}

func (h PlanHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req planPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	plan, err := h.Plans.Update(r.Context(), id, req.toParams())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planView(plan))
}

func (h PlanHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Plans.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "plan deleted"})
}

func planView(p *domain.SubscriptionPlan) map[string]any {
	return map[string]any{
		"id":              p.ID,
		"name":            p.Name,
		"description":     p.Description,
		"price":           p.Price,
		"currency":        p.Currency,
		"durationDays":    p.DurationDays,
		"maxStaffAllowed": p.MaxStaffAllowed,
		"features":        p.Features,
		"isActive":        p.IsActive,
		"isPopular":       p.IsPopular,
		"sortOrder":       p.SortOrder,
		"createdAt":       p.CreatedAt,
		"updatedAt":       p.UpdatedAt,
	}
}
