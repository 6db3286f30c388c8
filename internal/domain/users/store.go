package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, user *User, addr *InitialAddress) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	FindByNameAndEmail(ctx context.Context, name, email string) (*User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, user *User) error
	SoftDelete(ctx context.Context, id int64) error
	SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, user_name, email, name, birth_date, phone, role, password, refresh_token, is_active, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.Name, &u.BirthDate, &u.Phone, &u.Role,
		&u.Password.hash, &u.RefreshToken, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func duplicateError(err error) error {
	constraint, ok := database.IsUniqueViolation(err)
	if !ok {
		return nil
	}
	switch {
	case strings.Contains(constraint, "email"):
		return ErrDuplicateEmail
	case strings.Contains(constraint, "user_name"):
		return ErrDuplicateUserName
	}
	return nil
}

// Create inserts the user and, when addr is set, its first address as the
// default, in one transaction.
func (r *Repository) Create(ctx context.Context, user *User, addr *InitialAddress) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
INSERT INTO users (user_name, email, name, birth_date, phone, role, password, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
RETURNING id, is_active, created_at, updated_at`,
			user.UserName, user.Email, user.Name, user.BirthDate, user.Phone, user.Role, user.Password.hash,
		).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if dup := duplicateError(err); dup != nil {
				return dup
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if addr == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
INSERT INTO addresses (user_id, zip_code, address, address_detail, is_default)
VALUES ($1, $2, $3, $4, TRUE)`, user.ID, addr.ZipCode, addr.Address, addr.AddressDetail)
		if err != nil {
			return fmt.Errorf("insert first address: %w", err)
		}
		return nil
	})
}

// GetByID only returns usable accounts.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, `
SELECT `+userColumns+` FROM users
WHERE id = $1 AND is_active AND deleted_at IS NULL`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByUserName returns the row whatever its state so callers can tell an
// unknown name from a disabled account.
func (r *Repository) GetByUserName(ctx context.Context, userName string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_name = $1`, userName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return u, nil
}

func (r *Repository) FindByNameAndEmail(ctx context.Context, name, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, `
SELECT `+userColumns+` FROM users
WHERE name = $1 AND email = $2 AND is_active AND deleted_at IS NULL
ORDER BY id
LIMIT 1`, name, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by name and email: %w", err)
	}
	return u, nil
}

func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var taken bool
	err := r.db.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`, email, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, `
UPDATE users SET name = $2, email = $3, birth_date = $4, phone = $5, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING updated_at`, user.ID, user.Name, user.Email, user.BirthDate, user.Phone).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, user *User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE users SET password = $2, refresh_token = NULL, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`, user.ID, user.Password.hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
UPDATE users SET is_active = FALSE, deleted_at = now(), refresh_token = NULL, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, refreshToken)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var token *string
	err := r.db.QueryRow(ctx, `
SELECT refresh_token FROM users WHERE id = $1 AND is_active AND deleted_at IS NULL`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}
	if token == nil {
		return "", ErrNotFound
	}
	return *token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
