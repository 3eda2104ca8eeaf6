package repository

import (
	"context"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type VoucherRepository struct {
	DB *db.Postgres
}

// Create inserts an invoice voucher. Vouchers are immutable; there is no
// update path.
func (r VoucherRepository) Create(ctx context.Context, v *domain.InvoiceVoucher) (*domain.InvoiceVoucher, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO invoice_vouchers
		(voucher_no, shop_id, type, plan_name, max_staffs, amount, currency, period_start, period_end, issued_at, created_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, voucher_no, shop_id, type, plan_name, max_staffs, amount, currency, period_start, period_end, issued_at, created_by, notes
	`, v.VoucherNo, v.ShopID, v.Type, v.PlanName, v.MaxStaffs, v.Amount, v.Currency, v.PeriodStart, v.PeriodEnd, v.IssuedAt, v.CreatedBy, v.Notes)
	return scanVoucher(row)
}

func (r VoucherRepository) ListByShop(ctx context.Context, shopID int64, limit int) ([]domain.InvoiceVoucher, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, voucher_no, shop_id, type, plan_name, max_staffs, amount, currency, period_start, period_end, issued_at, created_by, notes
		FROM invoice_vouchers
		WHERE shop_id=$1
		ORDER BY issued_at DESC, id DESC
		LIMIT $2
	`, shopID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.InvoiceVoucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	return items, rows.Err()
}

func scanVoucher(row pgx.Row) (*domain.InvoiceVoucher, error) {
	var v domain.InvoiceVoucher
	var vType string
	var createdBy pgtype.Int8
	if err := row.Scan(
		&v.ID, &v.VoucherNo, &v.ShopID, &vType, &v.PlanName, &v.MaxStaffs, &v.Amount, &v.Currency,
		&v.PeriodStart, &v.PeriodEnd, &v.IssuedAt, &createdBy, &v.Notes,
	); err != nil {
		return nil, err
	}
	v.Type = domain.VoucherType(vType)
	if createdBy.Valid {
		v.CreatedBy = &createdBy.Int64
	}
	return &v, nil
}
