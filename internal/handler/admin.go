package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

// AdminHandler is the super-admin surface: tenant registry, subscription
// billing and platform-wide stats.
type AdminHandler struct {
	Shops         service.ShopService
	Subscriptions service.SubscriptionService
	Reports       service.ReportService
	Vouchers      repository.VoucherRepository
	Jobs          repository.JobRepository
}

func (h AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/admin/shops", h.createShop)
	r.Get("/admin/shops", h.listShops)
	r.Get("/admin/shops/{id}", h.getShop)
	r.Put("/admin/shops/{id}", h.updateShop)
	r.Delete("/admin/shops/{id}", h.deleteShop)
	r.Post("/admin/shops/{id}/extend", h.extendShop)
	r.Get("/admin/shops/{id}/vouchers", h.listVouchers)
	r.Get("/admin/users", h.listUsers)
	r.Get("/admin/jobs", h.listJobs)
	r.Get("/admin/stats", h.stats)
}

func (h AdminHandler) createShop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShopName  string `json:"shopName"`
		OwnerName string `json:"ownerName"`
		Phone     string `json:"phone"`
		Email     string `json:"email"`
		Address   string `json:"address"`
		Password  string `json:"password"`
		PlanID    *int64 `json:"planId"`
		PlanName  string `json:"planName"`
		MaxStaff  *int   `json:"maxStaff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	shop, user, err := h.Shops.CreateShop(r.Context(), service.CreateShopInput{
		ShopName:         req.ShopName,
		OwnerName:        req.OwnerName,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Password:         req.Password,
		PlanID:           req.PlanID,
		PlanName:         req.PlanName,
		MaxStaffOverride: req.MaxStaff,
		ActorID:          currentActorID(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"shop": shopView(shop),
		"user": userView(user),
	})
}

func (h AdminHandler) listShops(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Shops.ListShops(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		v := shopView(&rows[i].Shop)
		v["jobCount"] = rows[i].JobCount
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h AdminHandler) getShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	shop, err := h.Shops.GetShop(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(shop))
}

func (h AdminHandler) updateShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		ShopName           *string    `json:"shopName"`
		OwnerName          *string    `json:"ownerName"`
		Phone              *string    `json:"phone"`
		Email              *string    `json:"email"`
		Address            *string    `json:"address"`
		CustomRule         *string    `json:"customRule"`
		IsActive           *bool      `json:"isActive"`
		MaxStaffAllowed    *int       `json:"maxStaffAllowed"`
		SubscriptionExpire *time.Time `json:"subscriptionExpire"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	shop, err := h.Shops.UpdateShop(r.Context(), id, service.UpdateShopInput{
		ShopName:           req.ShopName,
		OwnerName:          req.OwnerName,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		CustomRule:         req.CustomRule,
		IsActive:           req.IsActive,
		MaxStaffAllowed:    req.MaxStaffAllowed,
		SubscriptionExpire: req.SubscriptionExpire,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(shop))
}

func (h AdminHandler) deleteShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Shops.DeleteShop(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "shop deleted"})
}

func (h AdminHandler) extendShop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		PlanID   *int64 `json:"planId"`
		PlanName string `json:"planName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	shop, err := h.Subscriptions.Extend(r.Context(), id, service.PlanRef{
		PlanID:   req.PlanID,
		PlanName: req.PlanName,
	}, currentActorID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shopView(shop))
}

func (h AdminHandler) listVouchers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit := intQuery(r, "limit", "50")
	rows, err := h.Vouchers.ListByShop(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for i := range rows {
		out = append(out, voucherView(&rows[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	users, total, err := h.Shops.ListUsers(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h AdminHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	jobs, total, err := h.Jobs.ListAll(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		out = append(out, jobView(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  out,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reports.PlatformStats(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func userView(u *domain.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"isSuperAdmin": u.IsSuperAdmin,
		"shopId":       u.ShopID,
		"createdAt":    u.CreatedAt,
	}
}

func voucherView(v *domain.InvoiceVoucher) map[string]any {
	return map[string]any{
		"id":          v.ID,
		"voucherNo":   v.VoucherNo,
		"shopId":      v.ShopID,
		"type":        v.Type,
		"planName":    v.PlanName,
		"maxStaffs":   v.MaxStaffs,
		"amount":      v.Amount,
		"currency":    v.Currency,
		"periodStart": v.PeriodStart,
		"periodEnd":   v.PeriodEnd,
		"issuedAt":    v.IssuedAt,
		"notes":       v.Notes,
	}
}
