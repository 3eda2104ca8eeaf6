package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/notify"
	"mobileservice-backend/internal/repository"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type JobHandler struct {
	Jobs    service.JobService
	BotName string
}

func (h JobHandler) RegisterRoutes(r chi.Router) {
	r.Post("/jobs", h.create)
	r.Get("/jobs", h.list)
	r.Get("/jobs/status-counts", h.statusCounts)
	r.Get("/jobs/{id}", h.get)
	r.Put("/jobs/{id}", h.update)
	r.Delete("/jobs/{id}", h.remove)
	r.Post("/jobs/{id}/checkout", h.checkout)
	r.Get("/jobs/{id}/qr", h.qrLink)
}

type jobPayload struct {
	CustomerName    *string `json:"customerName"`
	CustomerPhone   *string `json:"customerPhone"`
	DeviceModel     *string `json:"deviceModel"`
	IMEIOrSN        *string `json:"imeiOrSn"`
	Color           *string `json:"color"`
	Issue           *string `json:"issue"`
	PartsCost       *int64  `json:"partsCost"`
	ServiceFee      *int64  `json:"serviceFee"`
	Reserves        *int64  `json:"reserves"`
	Status          *string `json:"status"`
	AssignedStaffID *int64  `json:"assignedStaffId"`
	UnassignStaff   bool    `json:"unassignStaff"`
}

func (h JobHandler) create(w http.ResponseWriter, r *http.Request) {
	var req jobPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	in := service.CreateJobInput{
		ShopID:          currentShopID(r),
		Actor:           currentActor(r),
		AssignedStaffID: req.AssignedStaffID,
	}
	if req.CustomerName != nil {
		in.CustomerName = *req.CustomerName
	}
	if req.CustomerPhone != nil {
		in.CustomerPhone = *req.CustomerPhone
	}
	if req.DeviceModel != nil {
		in.DeviceModel = *req.DeviceModel
	}
	if req.IMEIOrSN != nil {
		in.IMEIOrSN = *req.IMEIOrSN
	}
	if req.Color != nil {
		in.Color = *req.Color
	}
	if req.Issue != nil {
		in.Issue = *req.Issue
	}
	if req.PartsCost != nil {
		in.PartsCost = *req.PartsCost
	}
	if req.ServiceFee != nil {
		in.ServiceFee = *req.ServiceFee
	}
	if req.Reserves != nil {
		in.Reserves = *req.Reserves
	}

	job, err := h.Jobs.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jobView(job))
}

func (h JobHandler) get(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	job, err := h.Jobs.Get(r.Context(), currentShopID(r), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job))
}

func (h JobHandler) update(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req jobPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	job, err := h.Jobs.Update(r.Context(), currentShopID(r), jobID, currentActor(r), service.UpdateJobInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeviceModel:     req.DeviceModel,
		IMEIOrSN:        req.IMEIOrSN,
		Color:           req.Color,
		Issue:           req.Issue,
		PartsCost:       req.PartsCost,
		ServiceFee:      req.ServiceFee,
		Reserves:        req.Reserves,
		Status:          req.Status,
		AssignedStaffID: req.AssignedStaffID,
		UnassignStaff:   req.UnassignStaff,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job))
}

func (h JobHandler) checkout(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	job, err := h.Jobs.Checkout(r.Context(), currentShopID(r), jobID, currentActor(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job))
}

func (h JobHandler) remove(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Jobs.Delete(r.Context(), currentShopID(r), jobID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (h JobHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := pageQuery(r)
	jobs, total, err := h.Jobs.List(r.Context(), repository.ListJobsParams{
		ShopID: currentShopID(r),
		Search: r.URL.Query().Get("search"),
		Status: domain.JobStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		items = append(items, jobView(&jobs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h JobHandler) statusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Jobs.StatusCounts(r.Context(), currentShopID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// qrLink returns the t.me deep link a shop prints on the receipt so the
// customer can follow the job from Telegram.
func (h JobHandler) qrLink(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	job, err := h.Jobs.Get(r.Context(), currentShopID(r), jobID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if time.Since(job.CreatedAt) > notify.JobLinkTTL {
		writeError(w, http.StatusGone, "job link expired")
		return
	}
	payload := notify.JobStartPayload(job.ID)
	writeJSON(w, http.StatusOK, map[string]string{
		"payload": payload,
		"link":    notify.BotLink(h.BotName, payload),
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func jobView(j *domain.Job) map[string]any {
	return map[string]any{
		"id":              j.ID,
		"jobNo":           j.JobNo,
		"shopId":          j.ShopID,
		"customerName":    j.CustomerName,
		"customerPhone":   j.CustomerPhone,
		"deviceModel":     j.DeviceModel,
		"imeiOrSn":        j.IMEIOrSN,
		"color":           j.Color,
		"issue":           j.Issue,
		"partsCost":       j.PartsCost,
		"serviceFee":      j.ServiceFee,
		"reserves":        j.Reserves,
		"totalAmount":     j.TotalAmount,
		"finalCost":       j.FinalCost,
		"profit":          j.Profit,
		"checkoutDate":    j.CheckoutDate,
		"isLocked":        j.IsLocked,
		"status":          j.Status,
		"timeline":        j.Timeline,
		"statusLogs":      j.StatusLogs,
		"assignedStaffId": j.AssignedStaffID,
		"createdAt":       j.CreatedAt,
		"updatedAt":       j.UpdatedAt,
	}
}
