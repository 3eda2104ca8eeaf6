package repository

import (
	"context"
	"errors"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type PlanRepository struct {
	DB *db.Postgres
}

const planColumns = `id, name, description, price, currency, duration_days, max_staff_allowed, features,
	is_active, is_popular, sort_order, created_at, updated_at`

type SavePlanParams struct {
	Name            string
	Description     string
	Price           int64
	Currency        string
	DurationDays    int
	MaxStaffAllowed int
	Features        []string
	IsActive        bool
	IsPopular       bool
	SortOrder       int
}

func (r PlanRepository) Create(ctx context.Context, p SavePlanParams) (*domain.SubscriptionPlan, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO subscription_plans
		(name, description, price, currency, duration_days, max_staff_allowed, features, is_active, is_popular, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
		RETURNING `+planColumns,
		p.Name, p.Description, p.Price, p.Currency, p.DurationDays, p.MaxStaffAllowed, featuresOrEmpty(p.Features), p.IsActive, p.IsPopular, p.SortOrder)
	return scanPlan(row)
}

func (r PlanRepository) Update(ctx context.Context, id int64, p SavePlanParams) (*domain.SubscriptionPlan, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE subscription_plans SET
			name=$1, description=$2, price=$3, currency=$4, duration_days=$5, max_staff_allowed=$6,
			features=$7, is_active=$8, is_popular=$9, sort_order=$10, updated_at=now()
		WHERE id=$11
		RETURNING `+planColumns,
		p.Name, p.Description, p.Price, p.Currency, p.DurationDays, p.MaxStaffAllowed, featuresOrEmpty(p.Features), p.IsActive, p.IsPopular, p.SortOrder, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (r PlanRepository) GetByID(ctx context.Context, id int64) (*domain.SubscriptionPlan, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id=$1`, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetByName matches case-insensitively so legacy plan names like "monthly"
// resolve to the seeded "Monthly" catalog entry.
func (r PlanRepository) GetByName(ctx context.Context, name string) (*domain.SubscriptionPlan, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE lower(name)=lower($1)`, name)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (r PlanRepository) ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+planColumns+` FROM subscription_plans
		WHERE is_active ORDER BY sort_order ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPlans(rows)
}

func (r PlanRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.SubscriptionPlan, int64, error) {
	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscription_plans`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+planColumns+` FROM subscription_plans
		ORDER BY sort_order ASC, created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	plans, err := collectPlans(rows)
	return plans, total, err
}

func (r PlanRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM subscription_plans WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func featuresOrEmpty(f []string) []string {
	if f == nil {
		return []string{}
	}
	return f
}

func collectPlans(rows pgx.Rows) ([]domain.SubscriptionPlan, error) {
	var plans []domain.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func scanPlan(row pgx.Row) (*domain.SubscriptionPlan, error) {
	var p domain.SubscriptionPlan
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Currency, &p.DurationDays, &p.MaxStaffAllowed, &p.Features,
		&p.IsActive, &p.IsPopular, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
