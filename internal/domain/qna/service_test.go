package qna

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memStore struct {
	rows     map[int64]*QnA
	products map[int64]bool
	nextID   int64
	clock    time.Time
}

func newMemStore(products ...int64) *memStore {
	m := &memStore{rows: map[int64]*QnA{}, products: map[int64]bool{}, clock: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	for _, id := range products {
		m.products[id] = true
	}
	return m
}

func (m *memStore) Create(_ context.Context, q *QnA) error {
	if !m.products[q.ProductID] {
		return ErrProductNotFound
	}
	m.nextID++
	m.clock = m.clock.Add(time.Minute)
	q.ID, q.CreatedAt = m.nextID, m.clock
	cp := *q
	m.rows[q.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*QnA, error) {
	q, ok := m.rows[id]
	if !ok || q.IsDeleted {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) filter(keep func(*QnA) bool) []*QnA {
	var out []*QnA
	for _, q := range m.rows {
		if !q.IsDeleted && keep(q) {
			cp := *q
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *QnA) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func window(all []*QnA, limit, offset int) []*QnA {
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

func (m *memStore) CountByProduct(_ context.Context, productID int64) (int, error) {
	return len(m.filter(func(q *QnA) bool { return q.ProductID == productID })), nil
}

func (m *memStore) ListByProduct(_ context.Context, productID int64, limit, offset int) ([]*QnA, error) {
	return window(m.filter(func(q *QnA) bool { return q.ProductID == productID }), limit, offset), nil
}

func (m *memStore) UpdateQuestion(_ context.Context, id int64, question string, isSecret bool) error {
	m.rows[id].Question, m.rows[id].IsSecret = question, isSecret
	return nil
}

func (m *memStore) SoftDelete(_ context.Context, id int64) error {
	m.rows[id].IsDeleted = true
	return nil
}

func (m *memStore) SetAnswer(_ context.Context, id int64, answer *string, at *time.Time) error {
	m.rows[id].Answer, m.rows[id].AnsweredAt = answer, at
	return nil
}

func adminKeep(f AdminFilter) func(*QnA) bool {
	return func(q *QnA) bool {
		if f.UnansweredOnly && q.Answered() {
			return false
		}
		return f.ProductID == nil || q.ProductID == *f.ProductID
	}
}

func (m *memStore) CountAdmin(_ context.Context, f AdminFilter) (int, error) {
	return len(m.filter(adminKeep(f))), nil
}

func (m *memStore) ListAdmin(_ context.Context, f AdminFilter, limit, offset int) ([]*QnA, error) {
	return window(m.filter(adminKeep(f)), limit, offset), nil
}

var (
	alice = Author{ID: 1, UserName: "alice"}
	bob   = Author{ID: 2, UserName: "bob"}
	admin = Viewer{UserID: 9, IsAdmin: true}
)

func newTestService(products ...int64) (*Service, *memStore) {
	store := newMemStore(products...)
	return NewService(store, zap.NewNop().Sugar()), store
}

func TestAsk_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(1)
	if _, err := svc.Ask(context.Background(), alice, 2, "in stock?", false); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("got %v, want ErrProductNotFound", err)
	}
}

func TestListForProduct_SecretMasking(t *testing.T) {
	svc, _ := newTestService(1)
	ctx := context.Background()
	secret, _ := svc.Ask(ctx, alice, 1, "my order number is 42", true)
	if _, err := svc.Answer(ctx, secret.ID, "shipped"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	svc.Ask(ctx, bob, 1, "what size?", false)

	tests := []struct {
		name       string
		viewer     Viewer
		wantMasked bool
	}{
		{"anonymous", Viewer{}, true},
		{"other user", Viewer{UserID: bob.ID}, true},
		{"author", Viewer{UserID: alice.ID}, false},
		{"admin", admin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListForProduct(ctx, 1, 1, tt.viewer)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var e *Entry
			for _, it := range page.Items {
				if it.ID == secret.ID {
					e = it
				}
			}
			if e == nil {
				t.Fatalf("secret entry missing from listing")
			}
			if e.Masked != tt.wantMasked {
				t.Fatalf("masked = %v, want %v", e.Masked, tt.wantMasked)
			}
			if tt.wantMasked {
				if e.Question != SecretPlaceholder || e.Answer != nil {
					t.Fatalf("secret content leaked: %+v", e.QnA)
				}
				if !e.IsAnswered {
					t.Fatalf("answered state should remain visible")
				}
			} else if e.Question != "my order number is 42" || e.Answer == nil {
				t.Fatalf("entry = %+v", e.QnA)
			}
		})
	}
}

func TestListForProduct_PagesOfTen(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()
	for i := 0; i < 23; i++ {
		svc.Ask(ctx, alice, 1, fmt.Sprintf("q%d", i), false)
	}
	svc.Ask(ctx, alice, 2, "elsewhere", false)

	page, err := svc.ListForProduct(ctx, 1, 99, Viewer{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.TotalPages != 3 || page.Pagination.Page != 3 || len(page.Items) != 3 {
		t.Fatalf("pagination = %+v, items = %d", page.Pagination, len(page.Items))
	}

	first, _ := svc.ListForProduct(ctx, 1, 1, Viewer{})
	if first.Items[0].Question != "q22" {
		t.Fatalf("newest question should come first, got %q", first.Items[0].Question)
	}
}

func TestEditQuestion_AuthorOnlyWhileUnanswered(t *testing.T) {
	svc, _ := newTestService(1)
	ctx := context.Background()
	q, _ := svc.Ask(ctx, alice, 1, "colour?", false)

	if _, err := svc.EditQuestion(ctx, Viewer{UserID: bob.ID}, q.ID, "hijack", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other user: got %v", err)
	}
	if _, err := svc.EditQuestion(ctx, admin, q.ID, "admin edit", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admins do not edit questions: got %v", err)
	}
	edited, err := svc.EditQuestion(ctx, Viewer{UserID: alice.ID}, q.ID, " colour options? ", true)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Question != "colour options?" || !edited.IsSecret {
		t.Fatalf("edited = %+v", edited)
	}

	svc.Answer(ctx, q.ID, "red and blue")
	if _, err := svc.EditQuestion(ctx, Viewer{UserID: alice.ID}, q.ID, "late", false); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("answered: got %v", err)
	}
}

func TestDelete_AuthorOrAdmin(t *testing.T) {
	svc, _ := newTestService(1)
	ctx := context.Background()
	a, _ := svc.Ask(ctx, alice, 1, "one", false)
	b, _ := svc.Ask(ctx, alice, 1, "two", false)

	if err := svc.Delete(ctx, Viewer{UserID: bob.ID}, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other user: got %v", err)
	}
	if err := svc.Delete(ctx, Viewer{UserID: alice.ID}, a.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, b.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted entry: got %v", err)
	}
}

func TestAnswerLifecycle(t *testing.T) {
	svc, store := newTestService(1)
	ctx := context.Background()
	answeredAt := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return answeredAt }
	q, _ := svc.Ask(ctx, alice, 1, "warranty?", false)

	if _, err := svc.EditAnswer(ctx, q.ID, "x"); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("edit before answer: got %v", err)
	}
	if _, err := svc.Answer(ctx, q.ID, "one year"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	svc.now = func() time.Time { return answeredAt.Add(time.Hour) }
	edited, err := svc.EditAnswer(ctx, q.ID, "two years")
	if err != nil {
		t.Fatalf("edit answer: %v", err)
	}
	if *edited.Answer != "two years" || !edited.AnsweredAt.Equal(answeredAt) {
		t.Fatalf("edited = %+v", edited)
	}

	if err := svc.DeleteAnswer(ctx, q.ID); err != nil {
		t.Fatalf("delete answer: %v", err)
	}
	row := store.rows[q.ID]
	if row.Answer != nil || row.AnsweredAt != nil {
		t.Fatalf("answer and timestamp should be cleared, got %+v", row)
	}
	if err := svc.DeleteAnswer(ctx, q.ID); !errors.Is(err, ErrNotAnswered) {
		t.Fatalf("second delete: got %v", err)
	}
}

func TestAdminListAndUnansweredCount(t *testing.T) {
	svc, _ := newTestService(1, 2)
	ctx := context.Background()
	a, _ := svc.Ask(ctx, alice, 1, "a", true)
	svc.Ask(ctx, bob, 2, "b", false)
	svc.Ask(ctx, bob, 2, "c", false)
	svc.Answer(ctx, a.ID, "done")

	n, err := svc.UnansweredCount(ctx)
	if err != nil || n != 2 {
		t.Fatalf("unanswered = %d, %v", n, err)
	}

	all, err := svc.AdminList(ctx, AdminFilter{}, 1)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if all.Pagination.Total != 3 {
		t.Fatalf("total = %d", all.Pagination.Total)
	}
	for _, e := range all.Items {
		if e.Masked {
			t.Fatalf("admin queue must not mask entries")
		}
	}

	open, _ := svc.AdminList(ctx, AdminFilter{UnansweredOnly: true}, 1)
	if open.Pagination.Total != 2 {
		t.Fatalf("unanswered filter total = %d", open.Pagination.Total)
	}
	product := int64(2)
	scoped, _ := svc.AdminList(ctx, AdminFilter{ProductID: &product}, 1)
	if scoped.Pagination.Total != 2 {
		t.Fatalf("product filter total = %d", scoped.Pagination.Total)
	}
}
