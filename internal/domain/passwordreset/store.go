package passwordreset

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, t *Token) error
	GetByID(ctx context.Context, id int64) (*Token, error)
	MarkUsed(ctx context.Context, id int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, t *Token) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `
INSERT INTO password_reset_tokens (user_id, token_hash, expire_at, is_used)
VALUES ($1, $2, $3, FALSE)
RETURNING id, created_at`, t.UserID, t.TokenHash, t.ExpireAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	t := &Token{}
	err := r.db.QueryRow(ctx, `
SELECT id, user_id, token_hash, expire_at, is_used, created_at
FROM password_reset_tokens WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpireAt, &t.IsUsed, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return t, nil
}

// MarkUsed flips the flag; rows are kept for audit.
func (r *Repository) MarkUsed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE password_reset_tokens SET is_used = TRUE WHERE id = $1 AND NOT is_used`, id)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenUsed
	}
	return nil
}
