package repository

import "context"

func (r PlanRepository) SeedDefaults(ctx context.Context) error {
	defaults := []SavePlanParams{
		{Name: "Trial", Description: "7-day evaluation", Price: 0, Currency: "MMK", DurationDays: 7, MaxStaffAllowed: 1, Features: []string{"Job tickets", "1 staff"}, IsActive: true, SortOrder: 0},
		{Name: "Monthly", Description: "Standard monthly plan", Price: 50000, Currency: "MMK", DurationDays: 30, MaxStaffAllowed: 3, Features: []string{"Job tickets", "Reports", "3 staff"}, IsActive: true, IsPopular: true, SortOrder: 1},
		{Name: "Yearly", Description: "Standard yearly plan", Price: 500000, Currency: "MMK", DurationDays: 365, MaxStaffAllowed: 10, Features: []string{"Job tickets", "Reports", "10 staff", "Priority support"}, IsActive: true, SortOrder: 2},
	}

	for _, p := range defaults {
		// Idempotent: subscription_plans.name is unique.
		_, err := r.DB.Pool.Exec(ctx, `
			INSERT INTO subscription_plans
			(name, description, price, currency, duration_days, max_staff_allowed, features, is_active, is_popular, sort_order, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
			ON CONFLICT (name) DO NOTHING
		`, p.Name, p.Description, p.Price, p.Currency, p.DurationDays, p.MaxStaffAllowed, p.Features, p.IsActive, p.IsPopular, p.SortOrder)
		if err != nil {
			return err
		}
	}
	return nil
}
