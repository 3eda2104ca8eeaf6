package repository

import (
	"context"
	"errors"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type StaffRepository struct {
	DB *db.Postgres
}

type CreateStaffInput struct {
	ShopID int64
	Name   string
	Role   domain.StaffRole
	Phone  string
}

func (r StaffRepository) Create(ctx context.Context, in CreateStaffInput) (*domain.Staff, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO staff (shop_id, name, role, phone, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4, TRUE, now(), now())
		RETURNING id, shop_id, name, role, phone, is_active, created_at, updated_at
	`, in.ShopID, in.Name, in.Role, in.Phone)
	return scanStaff(row)
}

func (r StaffRepository) GetByID(ctx context.Context, id int64) (*domain.Staff, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, shop_id, name, role, phone, is_active, created_at, updated_at
		FROM staff WHERE id=$1
	`, id)
	st, err := scanStaff(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (r StaffRepository) ListByShop(ctx context.Context, shopID int64) ([]domain.Staff, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, name, role, phone, is_active, created_at, updated_at
		FROM staff WHERE shop_id=$1
		ORDER BY created_at DESC, id DESC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *st)
	}
	return items, rows.Err()
}

func (r StaffRepository) CountByShop(ctx context.Context, shopID int64) (int64, error) {
	var n int64
	err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE shop_id=$1`, shopID).Scan(&n)
	return n, err
}

func (r StaffRepository) Save(ctx context.Context, st *domain.Staff) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE staff SET name=$1, role=$2, phone=$3, is_active=$4, updated_at=now()
		WHERE id=$5
	`, st.Name, st.Role, st.Phone, st.IsActive, st.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r StaffRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM staff WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStaff(row pgx.Row) (*domain.Staff, error) {
	var st domain.Staff
	var role string
	if err := row.Scan(&st.ID, &st.ShopID, &st.Name, &role, &st.Phone, &st.IsActive, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.Role = domain.StaffRole(role)
	return &st, nil
}
