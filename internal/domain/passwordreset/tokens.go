package passwordreset

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"storefront/internal/metrics"

	"github.com/google/uuid"
)

// Tokens manages the issue, validate and consume lifecycle. An expired token
// is only detected when it is validated.
type Tokens struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewTokens(store Store, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{store: store, ttl: ttl, now: time.Now}
}

func hashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (t *Tokens) Issue(ctx context.Context, userID int64) (*Issued, error) {
	value := uuid.New().String()
	row := &Token{
		UserID:    userID,
		TokenHash: hashToken(value),
		ExpireAt:  t.now().UTC().Add(t.ttl),
	}
	if err := t.store.Create(ctx, row); err != nil {
		return nil, err
	}
	metrics.ResetTokensIssued.Inc()
	return &Issued{TokenID: row.ID, Value: value, ExpireAt: row.ExpireAt}, nil
}

// Validate checks, in order, that the token exists and is unused, that it has
// not expired, and that value matches byte for byte.
func (t *Tokens) Validate(ctx context.Context, tokenID int64, value string) (*Token, error) {
	row, err := t.store.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			reject("not_found")
		}
		return nil, err
	}
	if row.IsUsed {
		reject("used")
		return nil, ErrTokenUsed
	}
	if !t.now().Before(row.ExpireAt) {
		reject("expired")
		return nil, ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(hashToken(value)), []byte(row.TokenHash)) != 1 {
		reject("mismatch")
		return nil, ErrTokenMismatch
	}
	return row, nil
}

func (t *Tokens) Consume(ctx context.Context, tokenID int64) error {
	if err := t.store.MarkUsed(ctx, tokenID); err != nil {
		return err
	}
	metrics.ResetTokensConsumed.Inc()
	return nil
}

func reject(reason string) {
	metrics.ResetTokenRejections.WithLabelValues(reason).Inc()
}
