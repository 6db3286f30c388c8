package users

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateUserName  = errors.New("a user with that user name already exists")
	ErrDuplicateEmail     = errors.New("a user with that email already exists")
	ErrInvalidCredentials = errors.New("invalid user name or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrAdminSelfDelete    = errors.New("administrators cannot delete their own account")
	errNoPasswordHash     = errors.New("no password hash loaded")
	QueryTimeoutDuration  = time.Second * 5
)

const MinPasswordLength = 6

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int64      `json:"id"`
	UserName     string     `json:"user_name"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Phone        string     `json:"phone"`
	Role         string     `json:"role"`
	Password     password   `json:"-"`
	RefreshToken *string    `json:"-"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Usable reports whether the account may sign in or receive mail.
func (u *User) Usable() bool { return u.IsActive && u.DeletedAt == nil }

type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	if utf8.RuneCountInString(text) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	if len(p.hash) == 0 {
		return errNoPasswordHash
	}
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// InitialAddress is the optional shipping address captured at sign-up.
type InitialAddress struct {
	ZipCode       string
	Address       string
	AddressDetail *string
}

type RegisterInput struct {
	UserName  string
	Email     string
	Password  string
	Name      string
	BirthDate *time.Time
	Phone     string
	Address   *InitialAddress
}

type ProfileInput struct {
	Name      string
	Email     string
	BirthDate *time.Time
	Phone     string
}

// MaskUserName keeps the first two characters and stars out the rest. Names
// of two characters or fewer keep only the first one.
func MaskUserName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	switch {
	case len(runes) == 0:
		return ""
	case len(runes) <= 2:
		return string(runes[0]) + "*"
	default:
		return string(runes[:2]) + strings.Repeat("*", len(runes)-2)
	}
}
