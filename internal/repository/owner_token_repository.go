package repository

import (
	"context"
	"errors"
	"time"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type OwnerTokenRepository struct {
	DB *db.Postgres
}

func (r OwnerTokenRepository) Create(ctx context.Context, token string, shopID int64, expiresAt time.Time) (*domain.OwnerToken, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO owner_tokens (token, shop_id, expires_at, created_at)
		VALUES ($1,$2,$3, now())
		RETURNING id, token, shop_id, expires_at, telegram_chat_id, created_at
	`, token, shopID, expiresAt)
	return scanOwnerToken(row)
}

func (r OwnerTokenRepository) GetByToken(ctx context.Context, token string) (*domain.OwnerToken, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, token, shop_id, expires_at, telegram_chat_id, created_at
		FROM owner_tokens WHERE token=$1
	`, token)
	ot, err := scanOwnerToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ot, nil
}

func (r OwnerTokenRepository) SetChatID(ctx context.Context, id int64, chatID string) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE owner_tokens SET telegram_chat_id=$1 WHERE id=$2`, chatID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscribed returns tokens whose owners have bound a Telegram chat,
// for the daily summary fanout.
func (r OwnerTokenRepository) ListSubscribed(ctx context.Context) ([]domain.OwnerToken, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, token, shop_id, expires_at, telegram_chat_id, created_at
		FROM owner_tokens WHERE telegram_chat_id IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OwnerToken
	for rows.Next() {
		ot, err := scanOwnerToken(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *ot)
	}
	return items, rows.Err()
}

func scanOwnerToken(row pgx.Row) (*domain.OwnerToken, error) {
	var ot domain.OwnerToken
	var chatID pgtype.Text
	if err := row.Scan(&ot.ID, &ot.Token, &ot.ShopID, &ot.ExpiresAt, &chatID, &ot.CreatedAt); err != nil {
		return nil, err
	}
	if chatID.Valid {
		ot.TelegramChatID = &chatID.String
	}
	return &ot, nil
}
