package qna

import (
	"context"
	"strings"
	"time"

	"storefront/internal/params"

	"go.uber.org/zap"
)

type Page struct {
	Items      []*Entry          `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}

type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.SugaredLogger
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, now: time.Now, logger: logger}
}

// view masks a secret entry for anyone but its author and admins.
func view(q *QnA, v Viewer) *Entry {
	owner := v.UserID != 0 && v.UserID == q.UserID
	e := &Entry{
		QnA:        q,
		IsAnswered: q.Answered(),
		CanEdit:    owner && !q.Answered(),
	}
	if q.IsSecret && !owner && !v.IsAdmin {
		masked := *q
		masked.Question = SecretPlaceholder
		masked.Answer = nil
		e.QnA = &masked
		e.Masked = true
	}
	return e
}

// ListForProduct returns one newest-first page of a product's questions.
func (s *Service) ListForProduct(ctx context.Context, productID int64, page int, v Viewer) (*Page, error) {
	total, err := s.store.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	p := params.Resolve(page, PageSize, total)

	out := &Page{Items: []*Entry{}, Pagination: p}
	if total == 0 {
		return out, nil
	}
	rows, err := s.store.ListByProduct(ctx, productID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	for _, q := range rows {
		out.Items = append(out.Items, view(q, v))
	}
	return out, nil
}

func (s *Service) Ask(ctx context.Context, author Author, productID int64, question string, isSecret bool) (*QnA, error) {
	q := &QnA{
		ProductID: productID,
		UserID:    author.ID,
		UserName:  author.UserName,
		Question:  strings.TrimSpace(question),
		IsSecret:  isSecret,
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// EditQuestion is limited to the author while the question is unanswered.
func (s *Service) EditQuestion(ctx context.Context, v Viewer, id int64, question string, isSecret bool) (*QnA, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.UserID != v.UserID {
		return nil, ErrForbidden
	}
	if q.Answered() {
		return nil, ErrAlreadyAnswered
	}

	q.Question = strings.TrimSpace(question)
	q.IsSecret = isSecret
	if err := s.store.UpdateQuestion(ctx, id, q.Question, q.IsSecret); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Delete(ctx context.Context, v Viewer, id int64) error {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if q.UserID != v.UserID && !v.IsAdmin {
		return ErrForbidden
	}
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return err
	}
	if v.IsAdmin && q.UserID != v.UserID {
		s.logger.Infow("question removed by admin", "qna_id", id, "admin_id", v.UserID)
	}
	return nil
}

// Answer sets or replaces the answer and stamps answered_at.
func (s *Service) Answer(ctx context.Context, id int64, answer string) (*QnA, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(answer)
	at := s.now().UTC()
	if err := s.store.SetAnswer(ctx, id, &text, &at); err != nil {
		return nil, err
	}
	q.Answer, q.AnsweredAt = &text, &at
	return q, nil
}

// EditAnswer changes an existing answer and keeps its original timestamp.
func (s *Service) EditAnswer(ctx context.Context, id int64, answer string) (*QnA, error) {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.Answered() {
		return nil, ErrNotAnswered
	}
	text := strings.TrimSpace(answer)
	if err := s.store.SetAnswer(ctx, id, &text, q.AnsweredAt); err != nil {
		return nil, err
	}
	q.Answer = &text
	return q, nil
}

func (s *Service) DeleteAnswer(ctx context.Context, id int64) error {
	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !q.Answered() {
		return ErrNotAnswered
	}
	return s.store.SetAnswer(ctx, id, nil, nil)
}

// AdminList is the moderation queue across all products. Admins see secret
// entries in full.
func (s *Service) AdminList(ctx context.Context, f AdminFilter, page int) (*Page, error) {
	total, err := s.store.CountAdmin(ctx, f)
	if err != nil {
		return nil, err
	}
	p := params.Resolve(page, AdminPageSize, total)

	out := &Page{Items: []*Entry{}, Pagination: p}
	if total == 0 {
		return out, nil
	}
	rows, err := s.store.ListAdmin(ctx, f, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	admin := Viewer{IsAdmin: true}
	for _, q := range rows {
		out.Items = append(out.Items, view(q, admin))
	}
	return out, nil
}

// UnansweredCount feeds the admin alert badge.
func (s *Service) UnansweredCount(ctx context.Context) (int, error) {
	return s.store.CountAdmin(ctx, AdminFilter{UnansweredOnly: true})
}
