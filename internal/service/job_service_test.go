package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/repository"
)

type stubJobStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*domain.Job
}

func newStubJobStore() *stubJobStore {
	return &stubJobStore{jobs: make(map[int64]*domain.Job)}
}

func (s *stubJobStore) Create(_ context.Context, j *domain.Job) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *j
	cp.ID = s.nextID
	cp.CreatedAt = time.Now()
	s.jobs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *stubJobStore) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *stubJobStore) Save(_ context.Context, j *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[j.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.IsLocked {
		return repository.ErrLocked
	}
	cp := *j
	cp.IsLocked = cur.IsLocked
	s.jobs[j.ID] = &cp
	return nil
}

func (s *stubJobStore) Checkout(_ context.Context, j *domain.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.jobs[j.ID]
	if !ok || cur.IsLocked {
		return false, nil
	}
	cp := *j
	cp.IsLocked = true
	s.jobs[j.ID] = &cp
	return true, nil
}

func (s *stubJobStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *stubJobStore) ListByShop(_ context.Context, p repository.ListJobsParams) ([]domain.Job, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Job
	for _, j := range s.jobs {
		if j.ShopID == p.ShopID {
			out = append(out, *j)
		}
	}
	return out, int64(len(out)), nil
}

func (s *stubJobStore) StatusCounts(_ context.Context, shopID int64) (map[domain.JobStatus]int64, error) {
	counts := make(map[domain.JobStatus]int64)
	for _, st := range domain.JobStatuses {
		counts[st] = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.ShopID == shopID {
			counts[j.Status]++
		}
	}
	return counts, nil
}

type stubSuggestions struct {
	mu    sync.Mutex
	seen  map[string]int
	calls chan struct{}
}

func newStubSuggestions(capacity int) *stubSuggestions {
	return &stubSuggestions{seen: make(map[string]int), calls: make(chan struct{}, capacity)}
}

func (s *stubSuggestions) Upsert(_ context.Context, kind domain.SuggestionKind, value string) error {
	s.mu.Lock()
	s.seen[string(kind)+":"+value]++
	s.mu.Unlock()
	s.calls <- struct{}{}
	return nil
}

type stubNotifier struct {
	calls chan *domain.Job
	fail  bool
}

func (n *stubNotifier) NotifyStatusChange(_ context.Context, job *domain.Job) error {
	n.calls <- job
	if n.fail {
		return errors.New("channel down")
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newJobService(store *stubJobStore) JobService {
	return JobService{Jobs: store, Logger: testLogger()}
}

func strp(s string) *string { return &s }
func i64p(v int64) *int64   { return &v }

func seedJob(t *testing.T, svc JobService, shopID int64) *domain.Job {
	t.Helper()
	job, err := svc.Create(context.Background(), CreateJobInput{
		ShopID:        shopID,
		CustomerName:  "Aung Ko",
		CustomerPhone: "09790001122",
		DeviceModel:   "iPhone 12",
		Color:         "Black",
		Issue:         "Broken screen",
		PartsCost:     30000,
		ServiceFee:    50000,
		Reserves:      5000,
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestCreateJobStartsPending(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)

	job := seedJob(t, svc, 1)

	if job.Status != domain.JobPending {
		t.Fatalf("new job status = %q, want pending", job.Status)
	}
	if job.TotalAmount != 75000 {
		t.Fatalf("totalAmount = %d, want 75000", job.TotalAmount)
	}
	if len(job.Timeline) != 1 || job.Timeline[0].Status != domain.JobPending {
		t.Fatalf("timeline not seeded: %+v", job.Timeline)
	}
	if len(job.StatusLogs) != 1 || job.StatusLogs[0].Source != "create" {
		t.Fatalf("creation audit log not seeded: %+v", job.StatusLogs)
	}
	if job.JobNo == "" || job.JobNo[0] != '#' {
		t.Fatalf("jobNo = %q, want #<millis>", job.JobNo)
	}
}

func TestCreateJobValidation(t *testing.T) {
	svc := newJobService(newStubJobStore())

	_, err := svc.Create(context.Background(), CreateJobInput{
		ShopID: 1, CustomerPhone: "09", DeviceModel: "X", Issue: "y",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("missing name: err = %v, want ErrValidation", err)
	}

	_, err = svc.Create(context.Background(), CreateJobInput{
		ShopID: 1, CustomerName: "A", CustomerPhone: "09", DeviceModel: "X", Issue: "y",
		PartsCost: -1,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("negative cost: err = %v, want ErrValidation", err)
	}
}

func TestCreateJobIndexesSuggestions(t *testing.T) {
	store := newStubJobStore()
	sugg := newStubSuggestions(3)
	svc := JobService{Jobs: store, Suggestions: sugg, Logger: testLogger()}

	seedJob(t, svc, 1)

	for i := 0; i < 3; i++ {
		select {
		case <-sugg.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("suggestion upsert %d never happened", i)
		}
	}
	sugg.mu.Lock()
	defer sugg.mu.Unlock()
	for _, key := range []string{"model:iPhone 12", "color:Black", "issue:Broken screen"} {
		if sugg.seen[key] != 1 {
			t.Errorf("suggestion %q recorded %d times, want 1", key, sugg.seen[key])
		}
	}
}

func TestUpdateJobCrossTenant(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	_, err := svc.Update(context.Background(), 2, job.ID, nil, UpdateJobInput{Color: strp("Red")})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestUpdateJobInvalidStatus(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	_, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Status: strp("exploded")})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestUpdateJobStatusSynonym(t *testing.T) {
	store := newStubJobStore()
	notifier := &stubNotifier{calls: make(chan *domain.Job, 1)}
	svc := JobService{Jobs: store, Notifier: notifier, Logger: testLogger()}
	job := seedJob(t, svc, 1)
	actor := &domain.Actor{ID: i64p(9), Name: "Su Su"}

	updated, err := svc.Update(context.Background(), 1, job.ID, actor, UpdateJobInput{Status: strp("In-Progress")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.JobProgress {
		t.Fatalf("status = %q, want progress", updated.Status)
	}
	if len(updated.Timeline) != 2 || updated.Timeline[1].Status != domain.JobProgress {
		t.Fatalf("timeline not appended: %+v", updated.Timeline)
	}
	last := updated.StatusLogs[len(updated.StatusLogs)-1]
	if last.FromStatus != domain.JobPending || last.ToStatus != domain.JobProgress || last.Source != "update" {
		t.Fatalf("audit entry wrong: %+v", last)
	}
	if last.UpdatedByName != "Su Su" {
		t.Fatalf("audit actor = %q, want Su Su", last.UpdatedByName)
	}

	select {
	case notified := <-notifier.calls:
		if notified.ID != job.ID {
			t.Fatalf("notified job %d, want %d", notified.ID, job.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("status change was never notified")
	}
}

func TestUpdateJobSameStatusNoAuditNoNotify(t *testing.T) {
	store := newStubJobStore()
	notifier := &stubNotifier{calls: make(chan *domain.Job, 1)}
	svc := JobService{Jobs: store, Notifier: notifier, Logger: testLogger()}
	job := seedJob(t, svc, 1)

	updated, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Status: strp("pending")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.StatusLogs) != 1 {
		t.Fatalf("repeated status must not append audit entries: %+v", updated.StatusLogs)
	}
	select {
	case <-notifier.calls:
		t.Fatal("notification fired for unchanged status")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUpdateJobRecomputesTotalOnlyWhenCostSent(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	updated, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Color: strp("Blue")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalAmount != job.TotalAmount {
		t.Fatalf("totalAmount changed without cost input: %d", updated.TotalAmount)
	}

	updated, err = svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{ServiceFee: i64p(80000)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalAmount != 30000+80000-5000 {
		t.Fatalf("totalAmount = %d after fee change", updated.TotalAmount)
	}
}

func TestCheckoutFreezesFinancials(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	out, err := svc.Checkout(context.Background(), 1, job.ID, &domain.Actor{Name: "Owner"})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.Status != domain.JobCheckedOut || !out.IsLocked {
		t.Fatalf("job not locked after checkout: status=%q locked=%v", out.Status, out.IsLocked)
	}
	if out.FinalCost != 75000 {
		t.Fatalf("finalCost = %d, want 75000", out.FinalCost)
	}
	if out.Profit != 50000-30000-5000 {
		t.Fatalf("profit = %d, want 15000", out.Profit)
	}
	if out.CheckoutDate == nil {
		t.Fatal("checkoutDate not set")
	}
	last := out.StatusLogs[len(out.StatusLogs)-1]
	if last.Source != "checkout" || last.ToStatus != domain.JobCheckedOut {
		t.Fatalf("checkout audit entry wrong: %+v", last)
	}
}

func TestCheckoutTwice(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	if _, err := svc.Checkout(context.Background(), 1, job.ID, nil); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	_, err := svc.Checkout(context.Background(), 1, job.ID, nil)
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("second checkout err = %v, want ErrAlreadyLocked", err)
	}
}

func TestUpdateAfterCheckoutRejected(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	if _, err := svc.Checkout(context.Background(), 1, job.ID, nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	_, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{ServiceFee: i64p(1)})
	if !errors.Is(err, ErrJobLocked) {
		t.Fatalf("err = %v, want ErrJobLocked", err)
	}
}

func TestUpdateToCheckedOutLocksAndFreezes(t *testing.T) {
	store := newStubJobStore()
	svc := newJobService(store)
	job := seedJob(t, svc, 1)

	updated, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Status: strp("picked-up")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsLocked || updated.Status != domain.JobCheckedOut {
		t.Fatalf("job not locked: %+v", updated)
	}
	if updated.FinalCost != updated.TotalAmount {
		t.Fatalf("finalCost = %d, want frozen total %d", updated.FinalCost, updated.TotalAmount)
	}

	stored, err := store.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsLocked {
		t.Fatal("store did not persist the lock")
	}
}

func TestNotifierFailureDoesNotFailUpdate(t *testing.T) {
	store := newStubJobStore()
	notifier := &stubNotifier{calls: make(chan *domain.Job, 1), fail: true}
	svc := JobService{Jobs: store, Notifier: notifier, Logger: testLogger()}
	job := seedJob(t, svc, 1)

	updated, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Status: strp("complete")})
	if err != nil {
		t.Fatalf("update must not fail on notifier error: %v", err)
	}
	if updated.Status != domain.JobComplete {
		t.Fatalf("status = %q", updated.Status)
	}
	<-notifier.calls
}

// lockRaceStore locks the stored job on every read, so the caller's write
// always lands after a competing checkout.
type lockRaceStore struct {
	*stubJobStore
}

func (s *lockRaceStore) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := s.stubJobStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.jobs[id].IsLocked = true
	s.mu.Unlock()
	return job, nil
}

func TestUpdateLosingCheckoutRace(t *testing.T) {
	store := newStubJobStore()
	svc := JobService{Jobs: store, Suggestions: newStubSuggestions(16), Logger: testLogger()}
	job := seedJob(t, svc, 1)

	svc.Jobs = &lockRaceStore{stubJobStore: store}
	_, err := svc.Update(context.Background(), 1, job.ID, nil, UpdateJobInput{Issue: strp("Water damage")})
	if !errors.Is(err, ErrJobLocked) {
		t.Fatalf("err = %v, want ErrJobLocked", err)
	}
}
