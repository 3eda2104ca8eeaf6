package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

// JobStore is the persistence surface the job ledger needs.
type JobStore interface {
	Create(ctx context.Context, j *domain.Job) (*domain.Job, error)
	GetByID(ctx context.Context, id int64) (*domain.Job, error)
	Save(ctx context.Context, j *domain.Job) error
	Checkout(ctx context.Context, j *domain.Job) (bool, error)
	Delete(ctx context.Context, id int64) error
	ListByShop(ctx context.Context, p repository.ListJobsParams) ([]domain.Job, int64, error)
	StatusCounts(ctx context.Context, shopID int64) (map[domain.JobStatus]int64, error)
}

// SuggestionStore feeds the autocomplete frequency index.
type SuggestionStore interface {
	Upsert(ctx context.Context, kind domain.SuggestionKind, value string) error
}

// Notifier delivers customer-facing status messages. Calls are best effort:
// a failing or absent channel never blocks a job mutation.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, job *domain.Job) error
}

type JobService struct {
	Jobs        JobStore
	Suggestions SuggestionStore
	Notifier    Notifier
	Logger      *slog.Logger
}

type CreateJobInput struct {
	ShopID          int64
	Actor           *domain.Actor
	CustomerName    string
	CustomerPhone   string
	DeviceModel     string
	IMEIOrSN        string
	Color           string
	Issue           string
	PartsCost       int64
	ServiceFee      int64
	Reserves        int64
	AssignedStaffID *int64
}

// UpdateJobInput carries a partial update; nil fields are left untouched.
type UpdateJobInput struct {
	CustomerName    *string
	CustomerPhone   *string
	DeviceModel     *string
	IMEIOrSN        *string
	Color           *string
	Issue           *string
	PartsCost       *int64
	ServiceFee      *int64
	Reserves        *int64
	Status          *string
	AssignedStaffID *int64
	UnassignStaff   bool
}

// Create opens a new ticket. The job always starts pending no matter what
// the caller sent, and totalAmount is derived server-side.
func (s JobService) Create(ctx context.Context, in CreateJobInput) (*domain.Job, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, validationf("customerName is required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return nil, validationf("customerPhone is required")
	}
	if strings.TrimSpace(in.DeviceModel) == "" {
		return nil, validationf("deviceModel is required")
	}
	if strings.TrimSpace(in.Issue) == "" {
		return nil, validationf("issue is required")
	}
	if err := checkCosts(in.PartsCost, in.ServiceFee, in.Reserves); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &domain.Job{
		JobNo:           fmt.Sprintf("#%d", now.UnixMilli()),
		ShopID:          in.ShopID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		DeviceModel:     strings.TrimSpace(in.DeviceModel),
		IMEIOrSN:        strings.TrimSpace(in.IMEIOrSN),
		Color:           strings.TrimSpace(in.Color),
		Issue:           strings.TrimSpace(in.Issue),
		PartsCost:       in.PartsCost,
		ServiceFee:      in.ServiceFee,
		Reserves:        in.Reserves,
		AssignedStaffID: in.AssignedStaffID,
	}
	job.ComputeTotal()
	job.SeedCreation(in.Actor, now)

	created, err := s.Jobs.Create(ctx, job)
	if err != nil {
		return nil, err
	}
	s.index(domain.SuggestionModel, created.DeviceModel)
	s.index(domain.SuggestionColor, created.Color)
	s.index(domain.SuggestionIssue, created.Issue)
	return created, nil
}

// Get returns one job, enforcing tenant scoping.
func (s JobService) Get(ctx context.Context, shopID, jobID int64) (*domain.Job, error) {
	job, err := s.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ShopID != shopID {
		return nil, ErrForbidden
	}
	return job, nil
}

// Update applies a partial edit to an unlocked job. Status changes are
// audited and pushed to the customer channel; an update that moves the job
// to checked_out goes through the same freeze path as Checkout.
func (s JobService) Update(ctx context.Context, shopID, jobID int64, actor *domain.Actor, in UpdateJobInput) (*domain.Job, error) {
	job, err := s.Get(ctx, shopID, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsLocked || job.Status == domain.JobCheckedOut {
		return nil, ErrJobLocked
	}

	var next domain.JobStatus
	if in.Status != nil {
		next, err = resolveStatus(*in.Status)
		if err != nil {
			return nil, err
		}
	}

	if in.CustomerName != nil {
		job.CustomerName = strings.TrimSpace(*in.CustomerName)
	}
	if in.CustomerPhone != nil {
		job.CustomerPhone = strings.TrimSpace(*in.CustomerPhone)
	}
	if in.DeviceModel != nil {
		job.DeviceModel = strings.TrimSpace(*in.DeviceModel)
	}
	if in.IMEIOrSN != nil {
		job.IMEIOrSN = strings.TrimSpace(*in.IMEIOrSN)
	}
	if in.Color != nil {
		job.Color = strings.TrimSpace(*in.Color)
	}
	if in.Issue != nil {
		job.Issue = strings.TrimSpace(*in.Issue)
	}
	if in.PartsCost != nil {
		job.PartsCost = *in.PartsCost
	}
	if in.ServiceFee != nil {
		job.ServiceFee = *in.ServiceFee
	}
	if in.Reserves != nil {
		job.Reserves = *in.Reserves
	}
	if in.UnassignStaff {
		job.AssignedStaffID = nil
	} else if in.AssignedStaffID != nil {
		job.AssignedStaffID = in.AssignedStaffID
	}
	if err := checkCosts(job.PartsCost, job.ServiceFee, job.Reserves); err != nil {
		return nil, err
	}
	if in.PartsCost != nil || in.ServiceFee != nil || in.Reserves != nil {
		job.ComputeTotal()
	}

	now := time.Now()
	statusChanged := next != "" && next != job.Status
	if statusChanged {
		job.AppendTimeline(next, now)
		job.AppendStatusLog(actor, job.Status, next, "update", now)
		job.Status = next
	}

	if statusChanged && next == domain.JobCheckedOut {
		job.FinalCost = job.TotalAmount
		job.Profit = job.ServiceFee - job.PartsCost - job.Reserves
		job.CheckoutDate = &now
		job.IsLocked = true
		if err := s.Jobs.Save(ctx, job); err != nil {
			return nil, saveErr(err)
		}
		ok, err := s.Jobs.Checkout(ctx, job)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAlreadyLocked
		}
	} else if err := s.Jobs.Save(ctx, job); err != nil {
		return nil, saveErr(err)
	}

	if statusChanged {
		s.notify(job)
	}
	return job, nil
}

// Checkout freezes the job's financials and locks it. Concurrent checkouts
// are at-most-once: the second caller gets ErrAlreadyLocked.
func (s JobService) Checkout(ctx context.Context, shopID, jobID int64, actor *domain.Actor) (*domain.Job, error) {
	job, err := s.Get(ctx, shopID, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsLocked {
		return nil, ErrAlreadyLocked
	}

	now := time.Now()
	prev := job.Status
	job.FinalCost = job.TotalAmount
	job.Profit = job.ServiceFee - job.PartsCost - job.Reserves
	job.CheckoutDate = &now
	job.IsLocked = true
	job.AppendTimeline(domain.JobCheckedOut, now)
	job.AppendStatusLog(actor, prev, domain.JobCheckedOut, "checkout", now)
	job.Status = domain.JobCheckedOut

	ok, err := s.Jobs.Checkout(ctx, job)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyLocked
	}
	return job, nil
}

func (s JobService) Delete(ctx context.Context, shopID, jobID int64) error {
	if _, err := s.Get(ctx, shopID, jobID); err != nil {
		return err
	}
	return s.Jobs.Delete(ctx, jobID)
}

func (s JobService) List(ctx context.Context, p repository.ListJobsParams) ([]domain.Job, int64, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Status != "" && !domain.IsValidJobStatus(p.Status) {
		p.Status = domain.NormalizeStatus(string(p.Status))
	}
	return s.Jobs.ListByShop(ctx, p)
}

func (s JobService) StatusCounts(ctx context.Context, shopID int64) (map[domain.JobStatus]int64, error) {
	return s.Jobs.StatusCounts(ctx, shopID)
}

// resolveStatus maps explicit caller input onto the canonical enum.
// Synonyms are accepted; anything unrecognized is rejected rather than
// falling open like stored legacy values do.
func resolveStatus(raw string) (domain.JobStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return "", ErrInvalidStatus
	}
	next := domain.NormalizeStatus(v)
	if next == domain.JobPending && v != string(domain.JobPending) {
		return "", ErrInvalidStatus
	}
	return next, nil
}

// saveErr translates the store's lock refusal, which only shows up when
// another writer checked the job out between our read and this write.
func saveErr(err error) error {
	if errors.Is(err, repository.ErrLocked) {
		return ErrJobLocked
	}
	return err
}

func checkCosts(parts, fee, reserves int64) error {
	if parts < 0 || fee < 0 || reserves < 0 {
		return validationf("cost fields must not be negative")
	}
	return nil
}

// index bumps a suggestion counter in the background. The write is best
// effort; a failure only warns.
func (s JobService) index(kind domain.SuggestionKind, value string) {
	if s.Suggestions == nil || strings.TrimSpace(value) == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Suggestions.Upsert(ctx, kind, value); err != nil {
			s.Logger.Warn("suggestion upsert failed", "kind", kind, "error", err)
		}
	}()
}

func (s JobService) notify(job *domain.Job) {
	if s.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Notifier.NotifyStatusChange(ctx, job); err != nil {
			s.Logger.Warn("status notification failed", "jobId", job.ID, "error", err)
		}
	}()
}
