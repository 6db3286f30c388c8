package addresses

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and writes addresses. Every lookup is scoped to the owning user
// so a foreign row looks exactly like a missing one.
type Store interface {
	WithTx(ctx context.Context, fn func(Store) error) error
	ListByUser(ctx context.Context, userID int64) ([]*Address, error)
	Get(ctx context.Context, userID, id int64) (*Address, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, userID int64, in Input) (*Address, error)
	Update(ctx context.Context, userID, id int64, in Input) (*Address, error)
	Delete(ctx context.Context, userID, id int64) error
	ClearDefault(ctx context.Context, userID int64) error
	MarkDefault(ctx context.Context, userID, id int64) error
}

type Repository struct {
	db   database.Querier
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) error {
	return database.WithTx(r.pool, ctx, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx, pool: r.pool})
	})
}

const addressColumns = `id, user_id, zip_code, address, address_detail, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*Address, error) {
	a := &Address{}
	if err := row.Scan(&a.ID, &a.UserID, &a.ZipCode, &a.Address, &a.AddressDetail, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `
SELECT `+addressColumns+` FROM addresses
WHERE user_id = $1
ORDER BY is_default DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	out := []*Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, userID, id int64) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	a, err := scanAddress(r.db.QueryRow(ctx, `
SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

func (r *Repository) CountByUser(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count addresses: %w", err)
	}
	return n, nil
}

func (r *Repository) Create(ctx context.Context, userID int64, in Input) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	a, err := scanAddress(r.db.QueryRow(ctx, `
INSERT INTO addresses (user_id, zip_code, address, address_detail, is_default)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+addressColumns, userID, in.ZipCode, in.Address, in.AddressDetail, in.IsDefault))
	if err != nil {
		return nil, fmt.Errorf("insert address: %w", err)
	}
	return a, nil
}

func (r *Repository) Update(ctx context.Context, userID, id int64, in Input) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	a, err := scanAddress(r.db.QueryRow(ctx, `
UPDATE addresses
SET zip_code = $3, address = $4, address_detail = $5, is_default = is_default OR $6, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING `+addressColumns, id, userID, in.ZipCode, in.Address, in.AddressDetail, in.IsDefault))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update address: %w", err)
	}
	return a, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ClearDefault(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `
UPDATE addresses SET is_default = FALSE, updated_at = now()
WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	return nil
}

func (r *Repository) MarkDefault(ctx context.Context, userID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE addresses SET is_default = TRUE, updated_at = now()
WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
