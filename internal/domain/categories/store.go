package categories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	ListAll(ctx context.Context) ([]*Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, in CreateInput) (*Category, error)
	Update(ctx context.Context, id int64, in UpdateInput) (*Category, error)
	SoftDelete(ctx context.Context, id int64) error
	CountActiveChildren(ctx context.Context, id int64) (int, error)
	CountProducts(ctx context.Context, id int64) (int, error)
}

type Repository struct {
	db database.Querier
}

func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

const categoryColumns = `id, parent_id, name, description, is_active, created_at, updated_at, deleted_at`

func scanCategory(row pgx.Row) (*Category, error) {
	c := &Category{}
	err := row.Scan(&c.ID, &c.ParentID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListAll returns every category that is not soft-deleted, inactive ones
// included; NewTree drops those.
func (r *Repository) ListAll(ctx context.Context) ([]*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c, err := scanCategory(r.db.QueryRow(ctx, `
INSERT INTO categories (parent_id, name, description, is_active)
VALUES ($1, $2, $3, TRUE)
RETURNING `+categoryColumns, in.ParentID, in.Name, in.Description))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c, err := scanCategory(r.db.QueryRow(ctx, `
UPDATE categories
SET parent_id = $2, name = $3, description = $4, is_active = $5, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING `+categoryColumns, id, in.ParentID, in.Name, in.Description, in.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE categories SET is_active = FALSE, deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) CountActiveChildren(ctx context.Context, id int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*) FROM categories
WHERE parent_id = $1 AND deleted_at IS NULL AND is_active`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count child categories: %w", err)
	}
	return n, nil
}

func (r *Repository) CountProducts(ctx context.Context, id int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*) FROM products WHERE category_id = $1 AND deleted_at IS NULL`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return n, nil
}
