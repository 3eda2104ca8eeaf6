package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrLocked reports a write against a job that has already been checked
// out: its row exists but the NOT is_locked guard refused the update.
var ErrLocked = errors.New("job is locked")

type JobRepository struct {
	DB *db.Postgres
}

const jobColumns = `id, job_no, shop_id, customer_name, customer_phone, device_model, imei_or_sn, color, issue,
	parts_cost, service_fee, reserves, total_amount, final_cost, profit, checkout_date, is_locked, status,
	timeline, status_logs, customer_chat_id, assigned_staff_id, created_at, updated_at`

func (r JobRepository) Create(ctx context.Context, j *domain.Job) (*domain.Job, error) {
	timeline, err := json.Marshal(j.Timeline)
	if err != nil {
		return nil, err
	}
	logs, err := json.Marshal(j.StatusLogs)
	if err != nil {
		return nil, err
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO jobs
		(job_no, shop_id, customer_name, customer_phone, device_model, imei_or_sn, color, issue,
		 parts_cost, service_fee, reserves, total_amount, status, timeline, status_logs, assigned_staff_id,
		 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16, now(), now())
		RETURNING `+jobColumns,
		j.JobNo, j.ShopID, j.CustomerName, j.CustomerPhone, j.DeviceModel, j.IMEIOrSN, j.Color, j.Issue,
		j.PartsCost, j.ServiceFee, j.Reserves, j.TotalAmount, j.Status, timeline, logs, j.AssignedStaffID)
	return scanJob(row)
}

func (r JobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// Save writes back every mutable field plus the append-only sequences.
// Callers must not use it on locked jobs; Checkout is the only path that
// sets is_locked.
func (r JobRepository) Save(ctx context.Context, j *domain.Job) error {
	timeline, err := json.Marshal(j.Timeline)
	if err != nil {
		return err
	}
	logs, err := json.Marshal(j.StatusLogs)
	if err != nil {
		return err
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE jobs SET
			customer_name=$1, customer_phone=$2, device_model=$3, imei_or_sn=$4, color=$5, issue=$6,
			parts_cost=$7, service_fee=$8, reserves=$9, total_amount=$10, status=$11,
			timeline=$12, status_logs=$13, customer_chat_id=$14, assigned_staff_id=$15, updated_at=now()
		WHERE id=$16 AND NOT is_locked
	`, j.CustomerName, j.CustomerPhone, j.DeviceModel, j.IMEIOrSN, j.Color, j.Issue,
		j.PartsCost, j.ServiceFee, j.Reserves, j.TotalAmount, j.Status,
		timeline, logs, j.CustomerChatID, j.AssignedStaffID, j.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var locked bool
		err := r.DB.Pool.QueryRow(ctx, `SELECT is_locked FROM jobs WHERE id=$1`, j.ID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if locked {
			return ErrLocked
		}
		return ErrNotFound
	}
	return nil
}

// Checkout atomically freezes the financial fields. The WHERE NOT is_locked
// guard makes concurrent checkouts at-most-once: the loser affects zero
// rows and gets ok=false.
func (r JobRepository) Checkout(ctx context.Context, j *domain.Job) (bool, error) {
	timeline, err := json.Marshal(j.Timeline)
	if err != nil {
		return false, err
	}
	logs, err := json.Marshal(j.StatusLogs)
	if err != nil {
		return false, err
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE jobs SET
			final_cost=$1, profit=$2, checkout_date=$3, is_locked=TRUE, status=$4,
			timeline=$5, status_logs=$6, updated_at=now()
		WHERE id=$7 AND NOT is_locked
	`, j.FinalCost, j.Profit, j.CheckoutDate, j.Status, timeline, logs, j.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r JobRepository) SetCustomerChatID(ctx context.Context, id int64, chatID string) error {
	_, err := r.DB.Pool.Exec(ctx, `UPDATE jobs SET customer_chat_id=$1, updated_at=now() WHERE id=$2`, chatID, id)
	return err
}

func (r JobRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM jobs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListJobsParams struct {
	ShopID int64
	Search string
	Status domain.JobStatus
	Page   int
	Limit  int
}

func (r JobRepository) ListByShop(ctx context.Context, p ListJobsParams) ([]domain.Job, int64, error) {
	where := `shop_id=$1`
	args := []any{p.ShopID}
	if p.Search != "" {
		args = append(args, "%"+p.Search+"%")
		where += fmt.Sprintf(` AND (customer_name ILIKE $%d OR device_model ILIKE $%d)`, len(args), len(args))
	}
	if p.Status != "" {
		args = append(args, p.Status)
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	}

	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, p.Limit, (p.Page-1)*p.Limit)
	query := fmt.Sprintf(`SELECT `+jobColumns+` FROM jobs WHERE `+where+`
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.DB.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, total, rows.Err()
}

func (r JobRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Job, int64, error) {
	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, total, rows.Err()
}

func (r JobRepository) CountByShop(ctx context.Context, shopID int64) (int64, error) {
	var n int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE shop_id=$1`, shopID).Scan(&n)
	return n, err
}

// StatusCounts reports job counts per status for one shop. Missing statuses
// are returned as zero so the response always carries all five keys.
func (r JobRepository) StatusCounts(ctx context.Context, shopID int64) (map[domain.JobStatus]int64, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT status, COUNT(*) FROM jobs WHERE shop_id=$1 GROUP BY status`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int64, len(domain.JobStatuses))
	for _, s := range domain.JobStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.NormalizeStatus(status)] += n
	}
	return counts, rows.Err()
}

// LockedTotals holds period sums over checked-out jobs.
type LockedTotals struct {
	PartsCost  int64
	ServiceFee int64
	Reserves   int64
	Jobs       int64
}

func (r JobRepository) SumLockedRange(ctx context.Context, shopID int64, start, end time.Time) (LockedTotals, error) {
	var t LockedTotals
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(parts_cost),0), COALESCE(SUM(service_fee),0), COALESCE(SUM(reserves),0), COUNT(*)
		FROM jobs
		WHERE shop_id=$1 AND is_locked AND checkout_date >= $2 AND checkout_date < $3
	`, shopID, start, end).Scan(&t.PartsCost, &t.ServiceFee, &t.Reserves, &t.Jobs)
	return t, err
}

// StaffTotals holds per-staff period sums over checked-out jobs.
type StaffTotals struct {
	StaffID    int64
	Jobs       int64
	Profit     int64
	PartsCost  int64
	ServiceFee int64
}

func (r JobRepository) StaffPerformanceRange(ctx context.Context, shopID int64, start, end time.Time) ([]StaffTotals, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT assigned_staff_id, COUNT(*), COALESCE(SUM(profit),0), COALESCE(SUM(parts_cost),0), COALESCE(SUM(service_fee),0)
		FROM jobs
		WHERE shop_id=$1 AND is_locked AND assigned_staff_id IS NOT NULL
		  AND checkout_date >= $2 AND checkout_date < $3
		GROUP BY assigned_staff_id
	`, shopID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []StaffTotals
	for rows.Next() {
		var st StaffTotals
		if err := rows.Scan(&st.StaffID, &st.Jobs, &st.Profit, &st.PartsCost, &st.ServiceFee); err != nil {
			return nil, err
		}
		items = append(items, st)
	}
	return items, rows.Err()
}

// DailySummary counts jobs created in the window and sums their totals, for
// the evening owner report.
func (r JobRepository) DailySummary(ctx context.Context, shopID int64, start, end time.Time) (totalJobs, income int64, err error) {
	err = r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount),0)
		FROM jobs
		WHERE shop_id=$1 AND created_at >= $2 AND created_at < $3
	`, shopID, start, end).Scan(&totalJobs, &income)
	return totalJobs, income, err
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	var status string
	var timeline, logs []byte
	var checkoutDate pgtype.Timestamptz
	var chatID pgtype.Text
	var staffID pgtype.Int8
	if err := row.Scan(
		&j.ID, &j.JobNo, &j.ShopID, &j.CustomerName, &j.CustomerPhone, &j.DeviceModel, &j.IMEIOrSN, &j.Color, &j.Issue,
		&j.PartsCost, &j.ServiceFee, &j.Reserves, &j.TotalAmount, &j.FinalCost, &j.Profit, &checkoutDate, &j.IsLocked, &status,
		&timeline, &logs, &chatID, &staffID, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return nil, err
	}
	j.Status = domain.NormalizeStatus(status)
	if checkoutDate.Valid {
		j.CheckoutDate = &checkoutDate.Time
	}
	if chatID.Valid {
		j.CustomerChatID = &chatID.String
	}
	if staffID.Valid {
		j.AssignedStaffID = &staffID.Int64
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &j.Timeline); err != nil {
			return nil, err
		}
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &j.StatusLogs); err != nil {
			return nil, err
		}
	}
	// Legacy rows may carry synonym statuses inside the sequences.
	for i := range j.Timeline {
		j.Timeline[i].Status = domain.NormalizeStatus(string(j.Timeline[i].Status))
	}
	for i := range j.StatusLogs {
		if j.StatusLogs[i].FromStatus != "" {
			j.StatusLogs[i].FromStatus = domain.NormalizeStatus(string(j.StatusLogs[i].FromStatus))
		}
		j.StatusLogs[i].ToStatus = domain.NormalizeStatus(string(j.StatusLogs[i].ToStatus))
	}
	return &j, nil
}
