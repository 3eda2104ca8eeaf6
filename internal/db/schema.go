package db

import "context"

// EnsureSchema creates the tables on first boot. Statements are idempotent
// so restarts are safe. Append-only sequences (job timeline, status logs,
// shop payment history) live in jsonb columns because they are always read
// and written with their parent document.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shops (
			id BIGSERIAL PRIMARY KEY,
			shop_name TEXT NOT NULL,
			owner_name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			security_pin_hash TEXT,
			logo_url TEXT,
			custom_rule TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			subscription_start TIMESTAMPTZ NOT NULL DEFAULT now(),
			subscription_expire TIMESTAMPTZ NOT NULL,
			subscription_plan TEXT NOT NULL DEFAULT 'trial',
			subscription_class TEXT NOT NULL DEFAULT 'Basic',
			max_staff_allowed INT NOT NULL DEFAULT 1 CHECK (max_staff_allowed >= 1),
			payment_history JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_super_admin BOOLEAN NOT NULL DEFAULT FALSE,
			shop_id BIGINT REFERENCES shops(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS subscription_plans (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL DEFAULT 0 CHECK (price >= 0),
			currency TEXT NOT NULL DEFAULT 'MMK',
			duration_days INT NOT NULL DEFAULT 30 CHECK (duration_days >= 1),
			max_staff_allowed INT NOT NULL DEFAULT 1 CHECK (max_staff_allowed >= 1),
			features TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_popular BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id BIGSERIAL PRIMARY KEY,
			shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'Technician',
			phone TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			id BIGSERIAL PRIMARY KEY,
			job_no TEXT NOT NULL UNIQUE,
			shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			device_model TEXT NOT NULL,
			imei_or_sn TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			issue TEXT NOT NULL,
			parts_cost BIGINT NOT NULL DEFAULT 0,
			service_fee BIGINT NOT NULL DEFAULT 0,
			reserves BIGINT NOT NULL DEFAULT 0,
			total_amount BIGINT NOT NULL DEFAULT 0,
			final_cost BIGINT NOT NULL DEFAULT 0,
			profit BIGINT NOT NULL DEFAULT 0,
			checkout_date TIMESTAMPTZ,
			is_locked BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'pending',
			timeline JSONB NOT NULL DEFAULT '[]',
			status_logs JSONB NOT NULL DEFAULT '[]',
			customer_chat_id TEXT,
			assigned_staff_id BIGINT REFERENCES staff(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_shop_created ON jobs (shop_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_shop_checkout ON jobs (shop_id, checkout_date) WHERE is_locked`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount >= 0),
			note TEXT NOT NULL DEFAULT '',
			expense_date TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_shop_date ON expenses (shop_id, expense_date DESC)`,
		`CREATE TABLE IF NOT EXISTS invoice_vouchers (
			id BIGSERIAL PRIMARY KEY,
			voucher_no TEXT NOT NULL UNIQUE,
			shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK (type IN ('CREATE','EXTEND')),
			plan_name TEXT NOT NULL,
			max_staffs INT NOT NULL DEFAULT 1,
			amount BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
			currency TEXT NOT NULL DEFAULT 'MMK',
			period_start TIMESTAMPTZ NOT NULL,
			period_end TIMESTAMPTZ NOT NULL,
			issued_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_by BIGINT,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vouchers_shop_issued ON invoice_vouchers (shop_id, issued_at DESC)`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL CHECK (kind IN ('model','color','issue')),
			value TEXT NOT NULL,
			frequency BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_kind_value ON suggestions (kind, lower(value))`,
		`CREATE TABLE IF NOT EXISTS owner_tokens (
			id BIGSERIAL PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			shop_id BIGINT NOT NULL REFERENCES shops(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL,
			telegram_chat_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
