package repository

import (
	"context"
	"errors"
	"strings"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	IsSuperAdmin bool
	ShopID       *int64
}

func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, is_super_admin, shop_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		RETURNING id, email, password_hash, is_super_admin, shop_id, created_at, updated_at
	`, strings.ToLower(strings.TrimSpace(p.Email)), p.PasswordHash, p.IsSuperAdmin, p.ShopID)
	return scanUser(row)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, is_super_admin, shop_id, created_at, updated_at
		FROM users WHERE email=$1
	`, strings.ToLower(strings.TrimSpace(email)))
	return scanUserNotFound(row)
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, is_super_admin, shop_id, created_at, updated_at
		FROM users WHERE id=$1
	`, id)
	return scanUserNotFound(row)
}

func (r UserRepository) GetByShop(ctx context.Context, shopID int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash, is_super_admin, shop_id, created_at, updated_at
		FROM users WHERE shop_id=$1
		ORDER BY id ASC LIMIT 1
	`, shopID)
	return scanUserNotFound(row)
}

func (r UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=now() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r UserRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE users SET email=$1, updated_at=now() WHERE id=$2`,
		strings.ToLower(strings.TrimSpace(email)), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r UserRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, email, password_hash, is_super_admin, shop_id, created_at, updated_at
		FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

var ErrNotFound = errors.New("not found")

func scanUserNotFound(row pgx.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var shopID pgtype.Int8
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsSuperAdmin, &shopID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if shopID.Valid {
		u.ShopID = &shopID.Int64
	}
	return &u, nil
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
