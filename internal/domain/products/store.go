package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the data access abstraction for products and their media.
type Store interface {
	WithTx(ctx context.Context, fn func(s Store) error) error

	Count(ctx context.Context, f Filter) (int, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Product, error)
	DistinctCategoryIDs(ctx context.Context) ([]int64, error)

	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*Product, error)
	SoftDelete(ctx context.Context, id int64) error

	ListMedia(ctx context.Context, productIDs []int64) ([]*Media, error)
	GetMedia(ctx context.Context, id int64) (*Media, error)
	CreateMedia(ctx context.Context, productID int64, m NewMedia) (*Media, error)
	SoftDeleteMedia(ctx context.Context, id int64) error
	SoftDeleteMediaByProduct(ctx context.Context, productID int64) error
	SetMediaSortOrder(ctx context.Context, id int64, sortOrder int) error
	SetMediaType(ctx context.Context, id int64, t MediaType, sortOrder int) error
}

type Repository struct {
	db   database.Querier
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn against a tx-scoped repository. Nested calls reuse the
// outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(s Store) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return database.WithTx(r.pool, ctx, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx})
	})
}

// whereClause renders f as SQL over products p. Membership tests use
// = ANY($n) with an int8 array.
func whereClause(f Filter) (string, []any) {
	var (
		conds = []string{"p.deleted_at IS NULL"}
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !f.IncludeHidden {
		conds = append(conds, "p.is_visible")
	}
	if f.CategoryIDs != nil {
		conds = append(conds, "p.category_id = ANY("+next(f.CategoryIDs)+"::bigint[])")
	}
	if f.Search != nil {
		name := "p.name ILIKE '%' || " + next(escapeLike(f.Search.NameContains)) + " || '%' ESCAPE '\\'"
		if len(f.Search.CategoryIDs) > 0 {
			conds = append(conds, "("+name+" OR p.category_id = ANY("+next(f.Search.CategoryIDs)+"::bigint[]))")
		} else {
			conds = append(conds, name)
		}
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

const productColumns = `p.id, p.category_id, p.name, p.description, p.price, p.discount_rate, p.is_visible, p.created_at, p.updated_at, p.deleted_at`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.DiscountRate,
		&p.IsVisible, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) Count(ctx context.Context, f Filter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := whereClause(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, f Filter, limit, offset int) ([]*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := whereClause(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
SELECT %s
FROM products p
%s
ORDER BY p.created_at DESC, p.id DESC
LIMIT $%d OFFSET $%d`, productColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DistinctCategoryIDs ignores the visibility flag; only soft-deleted
// products are excluded.
func (r *Repository) DistinctCategoryIDs(ctx context.Context) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT category_id FROM products WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("product categories: %w", err)
	}
	return ids, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, in ProductInput) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `
INSERT INTO products AS p (category_id, name, description, price, discount_rate, is_visible)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+productColumns,
		in.CategoryID, in.Name, in.Description, in.Price, in.DiscountRate, in.IsVisible))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p, err := scanProduct(r.db.QueryRow(ctx, `
UPDATE products AS p
SET category_id = $2, name = $3, description = $4, price = $5, discount_rate = $6,
    is_visible = $7, updated_at = now()
WHERE p.id = $1 AND p.deleted_at IS NULL
RETURNING `+productColumns,
		id, in.CategoryID, in.Name, in.Description, in.Price, in.DiscountRate, in.IsVisible))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return p, nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE products SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
