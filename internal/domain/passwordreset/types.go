package passwordreset

import (
	"errors"
	"time"
)

const DefaultTokenTTL = 30 * time.Minute

// ErrInvalid covers every token that can never succeed. The wrapped variants
// let callers tell the causes apart for logging.
var (
	ErrInvalid          = errors.New("invalid password reset link")
	ErrTokenNotFound    = wrapInvalid("token not found")
	ErrTokenUsed        = wrapInvalid("token already used")
	ErrTokenMismatch    = wrapInvalid("token value mismatch")
	ErrExpired          = errors.New("password reset link has expired")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrUserNotFound     = errors.New("user not found")

	QueryTimeoutDuration = time.Second * 5
)

type invalidError struct{ reason string }

func (e *invalidError) Error() string { return ErrInvalid.Error() + ": " + e.reason }
func (e *invalidError) Unwrap() error { return ErrInvalid }

func wrapInvalid(reason string) error { return &invalidError{reason: reason} }

// Token is a stored reset token. Only the sha256 of the token value is kept.
type Token struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpireAt  time.Time `json:"expire_at"`
	IsUsed    bool      `json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
}

// Issued is returned once at issuance; Value is never stored.
type Issued struct {
	TokenID  int64
	Value    string
	ExpireAt time.Time
}
