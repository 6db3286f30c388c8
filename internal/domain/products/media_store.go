package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const mediaColumns = `id, product_id, media_type, file_url, sort_order, is_active, created_at, deleted_at`

func scanMedia(row pgx.Row) (*Media, error) {
	m := &Media{}
	if err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.FileURL, &m.SortOrder, &m.IsActive, &m.CreatedAt, &m.DeletedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMedia returns eligible media (active, not deleted) of the given
// products ordered by product, sort order, then id.
func (r *Repository) ListMedia(ctx context.Context, productIDs []int64) ([]*Media, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, `
SELECT `+mediaColumns+`
FROM product_media
WHERE product_id = ANY($1::bigint[]) AND is_active AND deleted_at IS NULL
ORDER BY product_id, sort_order, id`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var out []*Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) GetMedia(ctx context.Context, id int64) (*Media, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	m, err := scanMedia(r.db.QueryRow(ctx,
		`SELECT `+mediaColumns+` FROM product_media WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// CreateMedia appends after the last media of the same type.
func (r *Repository) CreateMedia(ctx context.Context, productID int64, in NewMedia) (*Media, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	m, err := scanMedia(r.db.QueryRow(ctx, `
INSERT INTO product_media (product_id, media_type, file_url, sort_order, is_active)
VALUES ($1, $2, $3, (
    SELECT COALESCE(MAX(sort_order), 0) + 1 FROM product_media
    WHERE product_id = $1 AND media_type = $2 AND deleted_at IS NULL
), TRUE)
RETURNING `+mediaColumns, productID, in.Type, in.FileURL))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return m, nil
}

func (r *Repository) SoftDeleteMedia(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE product_media SET is_active = FALSE, deleted_at = now()
WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMediaNotFound
	}
	return nil
}

func (r *Repository) SoftDeleteMediaByProduct(ctx context.Context, productID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `
UPDATE product_media SET is_active = FALSE, deleted_at = now()
WHERE product_id = $1 AND deleted_at IS NULL`, productID)
	if err != nil {
		return fmt.Errorf("delete product media: %w", err)
	}
	return nil
}

func (r *Repository) SetMediaSortOrder(ctx context.Context, id int64, sortOrder int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE product_media SET sort_order = $2 WHERE id = $1`, id, sortOrder)
	if err != nil {
		return fmt.Errorf("reorder media: %w", err)
	}
	return nil
}

func (r *Repository) SetMediaType(ctx context.Context, id int64, t MediaType, sortOrder int) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE product_media SET media_type = $2, sort_order = $3 WHERE id = $1`, id, t, sortOrder)
	if err != nil {
		return fmt.Errorf("retype media: %w", err)
	}
	return nil
}
