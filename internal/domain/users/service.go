package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Service struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	user := &User{
		UserName:  strings.TrimSpace(in.UserName),
		Email:     strings.TrimSpace(in.Email),
		Name:      strings.TrimSpace(in.Name),
		BirthDate: in.BirthDate,
		Phone:     in.Phone,
		Role:      RoleUser,
	}
	if err := user.Password.Set(in.Password); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, user, in.Address); err != nil {
		return nil, err
	}
	s.logger.Infow("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate never says which part of the credentials was wrong.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (*User, error) {
	user, err := s.store.GetByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Usable() {
		return nil, ErrInvalidCredentials
	}
	if err := user.Password.Compare(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindID returns the masked user name of the account matching name and email.
func (s *Service) FindID(ctx context.Context, name, email string) (string, error) {
	user, err := s.store.FindByNameAndEmail(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	return MaskUserName(user.UserName), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// GetByUserName returns the account in any state.
func (s *Service) GetByUserName(ctx context.Context, userName string) (*User, error) {
	return s.store.GetByUserName(ctx, userName)
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (*User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if !strings.EqualFold(email, user.Email) {
		taken, err := s.store.EmailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateEmail
		}
	}

	user.Name = strings.TrimSpace(in.Name)
	user.Email = email
	user.BirthDate = in.BirthDate
	user.Phone = in.Phone
	if err := s.store.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, current, next, confirm string) error {
	if next != confirm {
		return ErrPasswordMismatch
	}
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.Password.Compare(current); err != nil {
		return ErrWrongPassword
	}
	if err := user.Password.Set(next); err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user)
}

// SetPassword replaces the password without the current one. It is only
// reachable through a validated reset token.
func (s *Service) SetPassword(ctx context.Context, id int64, next string) error {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.Password.Set(next); err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user)
}

func (s *Service) DeleteAccount(ctx context.Context, id int64, password string) error {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return ErrAdminSelfDelete
	}
	if err := user.Password.Compare(password); err != nil {
		return ErrWrongPassword
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.Infow("account deleted", "user_id", id)
	return nil
}

func (s *Service) SaveRefreshToken(ctx context.Context, userID int64, token string) error {
	return s.store.SaveRefreshToken(ctx, userID, token)
}

// VerifyRefreshToken reports whether token is the one last issued to the user.
func (s *Service) VerifyRefreshToken(ctx context.Context, userID int64, token string) (bool, error) {
	stored, err := s.store.GetRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.DeleteRefreshToken(ctx, userID)
}
