package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/domain/users"
	"storefront/internal/mailer"

	"go.uber.org/zap"
)

type Accounts interface {
	GetByUserName(ctx context.Context, userName string) (*users.User, error)
	GetByID(ctx context.Context, id int64) (*users.User, error)
	SetPassword(ctx context.Context, id int64, password string) error
}

type Mailer interface {
	Send(templateFile, username, email string, data any) (int, error)
}

// Service runs the reset flow on top of Tokens. RequestReset reports success
// for unknown, mismatched and disabled accounts alike.
type Service struct {
	tokens      *Tokens
	accounts    Accounts
	mailer      Mailer
	frontendURL string
	logger      *zap.SugaredLogger
}

func NewService(tokens *Tokens, accounts Accounts, mailer Mailer, frontendURL string, logger *zap.SugaredLogger) *Service {
	return &Service{
		tokens:      tokens,
		accounts:    accounts,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// ResetLink builds the link mailed to the user.
func (s *Service) ResetLink(tokenID int64, value string) string {
	q := url.Values{}
	q.Set("tokenId", strconv.FormatInt(tokenID, 10))
	q.Set("token", value)
	return s.frontendURL + "/reset-password?" + q.Encode()
}

// RequestReset only returns an error for infrastructure failures.
func (s *Service) RequestReset(ctx context.Context, userName, email string) error {
	user, err := s.accounts.GetByUserName(ctx, strings.TrimSpace(userName))
	switch {
	case errors.Is(err, users.ErrNotFound):
		s.logger.Infow("reset requested for unknown user")
		return nil
	case err != nil:
		return err
	}
	if !strings.EqualFold(user.Email, strings.TrimSpace(email)) {
		s.logger.Infow("reset requested with mismatched email", "user_id", user.ID)
		return nil
	}
	if !user.Usable() {
		s.logger.Infow("reset requested for disabled account", "user_id", user.ID)
		return nil
	}

	issued, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	vars := struct {
		Username  string
		ResetURL  string
		ExpiresIn string
	}{
		Username:  user.Name,
		ResetURL:  s.ResetLink(issued.TokenID, issued.Value),
		ExpiresIn: s.tokens.ttl.String(),
	}
	status, err := s.mailer.Send(mailer.ResetPasswordTemplate, user.Name, user.Email, vars)
	if err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	s.logger.Infow("reset password email sent", "user_id", user.ID, "status code", status)
	return nil
}

// Check validates a token without touching it.
func (s *Service) Check(ctx context.Context, tokenID int64, value string) error {
	_, err := s.tokens.Validate(ctx, tokenID, value)
	return err
}

// Reset updates the password and only then consumes the token, so a failed
// update leaves the token usable.
func (s *Service) Reset(ctx context.Context, tokenID int64, value, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	tok, err := s.tokens.Validate(ctx, tokenID, value)
	if err != nil {
		return err
	}

	user, err := s.accounts.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.accounts.SetPassword(ctx, user.ID, password); err != nil {
		return err
	}

	if err := s.tokens.Consume(ctx, tok.ID); err != nil {
		// the password is already changed; the token stays live until expiry
		s.logger.Errorw("consume reset token", "token_id", tok.ID, "error", err)
	}
	return nil
}
