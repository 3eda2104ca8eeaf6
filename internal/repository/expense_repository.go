package repository

import (
	"context"
	"errors"
	"time"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
)

type ExpenseRepository struct {
	DB *db.Postgres
}

type CreateExpenseInput struct {
	ShopID      int64
	Title       string
	Amount      int64
	Note        string
	ExpenseDate time.Time
}

func (r ExpenseRepository) Create(ctx context.Context, in CreateExpenseInput) (*domain.Expense, error) {
	var e domain.Expense
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO expenses (shop_id, title, amount, note, expense_date, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING id, shop_id, title, amount, note, expense_date, created_at
	`, in.ShopID, in.Title, in.Amount, in.Note, in.ExpenseDate).Scan(
		&e.ID, &e.ShopID, &e.Title, &e.Amount, &e.Note, &e.ExpenseDate, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r ExpenseRepository) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	var e domain.Expense
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, shop_id, title, amount, note, expense_date, created_at
		FROM expenses WHERE id=$1
	`, id).Scan(&e.ID, &e.ShopID, &e.Title, &e.Amount, &e.Note, &e.ExpenseDate, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r ExpenseRepository) ListByShop(ctx context.Context, shopID int64, limit int) ([]domain.Expense, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, title, amount, note, expense_date, created_at
		FROM expenses
		WHERE shop_id=$1
		ORDER BY expense_date DESC, created_at DESC
		LIMIT $2
	`, shopID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.ShopID, &e.Title, &e.Amount, &e.Note, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r ExpenseRepository) ListRange(ctx context.Context, shopID int64, start, end time.Time) ([]domain.Expense, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, title, amount, note, expense_date, created_at
		FROM expenses
		WHERE shop_id=$1 AND expense_date >= $2 AND expense_date < $3
		ORDER BY expense_date DESC, created_at DESC
	`, shopID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.ShopID, &e.Title, &e.Amount, &e.Note, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r ExpenseRepository) SumRange(ctx context.Context, shopID int64, start, end time.Time) (int64, error) {
	var total int64
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount),0)
		FROM expenses
		WHERE shop_id=$1 AND expense_date >= $2 AND expense_date < $3
	`, shopID, start, end).Scan(&total)
	return total, err
}

func (r ExpenseRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM expenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
