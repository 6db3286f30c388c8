package qna

import (
	"errors"
	"time"
)

const (
	PageSize      = 10
	AdminPageSize = 20
	// SecretPlaceholder replaces the question of a secret entry for readers
	// other than its author and admins.
	SecretPlaceholder = "This is a secret question."
)

var (
	ErrNotFound        = errors.New("question not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("you cannot modify this question")
	ErrAlreadyAnswered = errors.New("answered questions can no longer be edited")
	ErrNotAnswered     = errors.New("question has no answer yet")

	QueryTimeoutDuration = time.Second * 5
)

type QnA struct {
	ID         int64      `json:"id"`
	ProductID  int64      `json:"product_id"`
	UserID     int64      `json:"user_id"`
	UserName   string     `json:"user_name"`
	Question   string     `json:"question"`
	Answer     *string    `json:"answer,omitempty"`
	IsSecret   bool       `json:"is_secret"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	IsDeleted  bool       `json:"-"`
}

func (q *QnA) Answered() bool { return q.Answer != nil }

// Entry is a Q&A as shown to one reader.
type Entry struct {
	*QnA
	IsAnswered bool `json:"is_answered"`
	Masked     bool `json:"masked"`
	CanEdit    bool `json:"can_edit"`
}

// Viewer identifies the reader. A zero UserID is an anonymous visitor.
type Viewer struct {
	UserID  int64
	IsAdmin bool
}

type Author struct {
	ID       int64
	UserName string
}

type AdminFilter struct {
	UnansweredOnly bool
	ProductID      *int64
}
