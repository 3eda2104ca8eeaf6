package repository

import (
	"context"
	"encoding/json"
	"errors"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ShopRepository struct {
	DB *db.Postgres
}

const shopColumns = `id, shop_name, owner_name, phone, email, address, security_pin_hash, logo_url, custom_rule,
	is_active, subscription_start, subscription_expire, subscription_plan, subscription_class, max_staff_allowed,
	payment_history, created_at, updated_at`

func (r ShopRepository) Create(ctx context.Context, s *domain.Shop) (*domain.Shop, error) {
	history, err := json.Marshal(paymentHistoryOrEmpty(s.PaymentHistory))
	if err != nil {
		return nil, err
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shops
		(shop_name, owner_name, phone, email, address, custom_rule, is_active,
		 subscription_start, subscription_expire, subscription_plan, subscription_class, max_staff_allowed,
		 payment_history, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
		RETURNING `+shopColumns,
		s.ShopName, s.OwnerName, s.Phone, s.Email, s.Address, s.CustomRule, s.IsActive,
		s.SubscriptionStart, s.SubscriptionExpire, s.SubscriptionPlan, s.SubscriptionClass, s.MaxStaffAllowed,
		history)
	return scanShop(row)
}

func (r ShopRepository) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id=$1`, id)
	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (r ShopRepository) ListAll(ctx context.Context) ([]domain.Shop, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+shopColumns+` FROM shops ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shops []domain.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, err
		}
		shops = append(shops, *s)
	}
	return shops, rows.Err()
}

// Save writes back all mutable shop fields including the append-only
// payment history.
func (r ShopRepository) Save(ctx context.Context, s *domain.Shop) error {
	history, err := json.Marshal(paymentHistoryOrEmpty(s.PaymentHistory))
	if err != nil {
		return err
	}
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE shops SET
			shop_name=$1, owner_name=$2, phone=$3, email=$4, address=$5, security_pin_hash=$6, logo_url=$7,
			custom_rule=$8, is_active=$9, subscription_start=$10, subscription_expire=$11, subscription_plan=$12,
			subscription_class=$13, max_staff_allowed=$14, payment_history=$15, updated_at=now()
		WHERE id=$16
	`, s.ShopName, s.OwnerName, s.Phone, s.Email, s.Address, s.SecurityPinHash, s.LogoURL,
		s.CustomRule, s.IsActive, s.SubscriptionStart, s.SubscriptionExpire, s.SubscriptionPlan,
		s.SubscriptionClass, s.MaxStaffAllowed, history, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCascade removes the shop and every dependent record in one
// transaction, ordered children first.
func (r ShopRepository) DeleteCascade(ctx context.Context, shopID int64) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{"users", "jobs", "staff", "expenses", "invoice_vouchers", "owner_tokens"}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE shop_id=$1`, shopID); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM shops WHERE id=$1`, shopID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func paymentHistoryOrEmpty(h []domain.PaymentRecord) []domain.PaymentRecord {
	if h == nil {
		return []domain.PaymentRecord{}
	}
	return h
}

func scanShop(row pgx.Row) (*domain.Shop, error) {
	var s domain.Shop
	var pinHash, logoURL pgtype.Text
	var class string
	var history []byte
	if err := row.Scan(
		&s.ID, &s.ShopName, &s.OwnerName, &s.Phone, &s.Email, &s.Address, &pinHash, &logoURL, &s.CustomRule,
		&s.IsActive, &s.SubscriptionStart, &s.SubscriptionExpire, &s.SubscriptionPlan, &class, &s.MaxStaffAllowed,
		&history, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.SubscriptionClass = domain.SubscriptionClass(class)
	if pinHash.Valid {
		s.SecurityPinHash = &pinHash.String
	}
	if logoURL.Valid {
		s.LogoURL = &logoURL.String
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.PaymentHistory); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
