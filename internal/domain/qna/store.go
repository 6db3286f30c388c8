package qna

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, q *QnA) error
	GetByID(ctx context.Context, id int64) (*QnA, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
	ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*QnA, error)
	UpdateQuestion(ctx context.Context, id int64, question string, isSecret bool) error
	SoftDelete(ctx context.Context, id int64) error
	SetAnswer(ctx context.Context, id int64, answer *string, answeredAt *time.Time) error
	CountAdmin(ctx context.Context, f AdminFilter) (int, error)
	ListAdmin(ctx context.Context, f AdminFilter, limit, offset int) ([]*QnA, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectQnA = `
SELECT q.id, q.product_id, q.user_id, u.user_name, q.question, q.answer, q.is_secret,
       q.created_at, q.answered_at, q.is_deleted
FROM product_qna q
JOIN users u ON u.id = q.user_id`

func scanQnA(row pgx.Row) (*QnA, error) {
	q := &QnA{}
	err := row.Scan(&q.ID, &q.ProductID, &q.UserID, &q.UserName, &q.Question, &q.Answer, &q.IsSecret,
		&q.CreatedAt, &q.AnsweredAt, &q.IsDeleted)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func collect(rows pgx.Rows) ([]*QnA, error) {
	defer rows.Close()
	out := []*QnA{}
	for rows.Next() {
		q, err := scanQnA(rows)
		if err != nil {
			return nil, fmt.Errorf("scan qna: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repository) Create(ctx context.Context, q *QnA) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `
INSERT INTO product_qna (product_id, user_id, question, is_secret)
SELECT $1, $2, $3, $4
WHERE EXISTS (SELECT 1 FROM products WHERE id = $1 AND deleted_at IS NULL)
RETURNING id, created_at`, q.ProductID, q.UserID, q.Question, q.IsSecret).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || database.IsForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("insert qna: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*QnA, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q, err := scanQnA(r.db.QueryRow(ctx, selectQnA+` WHERE q.id = $1 AND NOT q.is_deleted`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get qna: %w", err)
	}
	return q, nil
}

func (r *Repository) CountByProduct(ctx context.Context, productID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `
SELECT COUNT(*) FROM product_qna WHERE product_id = $1 AND NOT is_deleted`, productID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count qna: %w", err)
	}
	return n, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]*QnA, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, selectQnA+`
WHERE q.product_id = $1 AND NOT q.is_deleted
ORDER BY q.created_at DESC, q.id DESC
LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list qna: %w", err)
	}
	return collect(rows)
}

func (r *Repository) UpdateQuestion(ctx context.Context, id int64, question string, isSecret bool) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE product_qna SET question = $2, is_secret = $3
WHERE id = $1 AND NOT is_deleted AND answer IS NULL`, id, question, isSecret)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyAnswered
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE product_qna SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("delete qna: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAnswer writes or clears the answer; a nil answer clears answered_at too.
func (r *Repository) SetAnswer(ctx context.Context, id int64, answer *string, answeredAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE product_qna SET answer = $2, answered_at = $3
WHERE id = $1 AND NOT is_deleted`, id, answer, answeredAt)
	if err != nil {
		return fmt.Errorf("set answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func adminWhere(f AdminFilter) (string, []any) {
	clauses := []string{"NOT q.is_deleted"}
	var args []any
	if f.UnansweredOnly {
		clauses = append(clauses, "q.answer IS NULL")
	}
	if f.ProductID != nil {
		args = append(args, *f.ProductID)
		clauses = append(clauses, "q.product_id = $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *Repository) CountAdmin(ctx context.Context, f AdminFilter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := adminWhere(f)
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM product_qna q`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count qna: %w", err)
	}
	return n, nil
}

func (r *Repository) ListAdmin(ctx context.Context, f AdminFilter, limit, offset int) ([]*QnA, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	where, args := adminWhere(f)
	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.db.Query(ctx, selectQnA+where+fmt.Sprintf(`
ORDER BY q.created_at DESC, q.id DESC
LIMIT $%d OFFSET $%d`, n+1, n+2), args...)
	if err != nil {
		return nil, fmt.Errorf("list qna: %w", err)
	}
	return collect(rows)
}
