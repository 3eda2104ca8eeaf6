package repository

import (
	"context"
	"strings"

	"mobileservice-backend/internal/db"
	"mobileservice-backend/internal/domain"
)

type SuggestionRepository struct {
	DB *db.Postgres
}

// Upsert bumps the frequency of an existing (kind, value) pair or inserts
// it with frequency 1. Matching is case-insensitive; the first-seen casing
// is kept.
func (r SuggestionRepository) Upsert(ctx context.Context, kind domain.SuggestionKind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO suggestions (kind, value, frequency, created_at, updated_at)
		VALUES ($1,$2,1, now(), now())
		ON CONFLICT (kind, lower(value))
		DO UPDATE SET frequency = suggestions.frequency + 1, updated_at = now()
	`, kind, value)
	return err
}

// List returns the top suggestion values for a kind ranked by frequency,
// optionally filtered by substring.
func (r SuggestionRepository) List(ctx context.Context, kind domain.SuggestionKind, query string, limit int) ([]string, error) {
	sql := `
		SELECT value FROM suggestions
		WHERE kind=$1
		ORDER BY frequency DESC, value ASC
		LIMIT $2`
	args := []any{kind, limit}
	if query != "" {
		sql = `
		SELECT value FROM suggestions
		WHERE kind=$1 AND value ILIKE $3
		ORDER BY frequency DESC, value ASC
		LIMIT $2`
		args = append(args, "%"+query+"%")
	}
	rows, err := r.DB.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
