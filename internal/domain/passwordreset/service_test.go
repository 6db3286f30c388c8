package passwordreset

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"storefront/internal/domain/users"

	"go.uber.org/zap"
)

type memStore struct {
	rows   map[int64]*Token
	nextID int64
}

func newMemStore() *memStore { return &memStore{rows: map[int64]*Token{}} }

func (m *memStore) Create(_ context.Context, t *Token) error {
	m.nextID++
	t.ID = m.nextID
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Token, error) {
	t, ok := m.rows[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) MarkUsed(_ context.Context, id int64) error {
	t, ok := m.rows[id]
	if !ok || t.IsUsed {
		return ErrTokenUsed
	}
	t.IsUsed = true
	return nil
}

type fakeAccounts struct {
	byID      map[int64]*users.User
	passwords map[int64]string
	failSet   error
	// tokenUsedAtSet records whether the token was already consumed when
	// the password was written.
	tokenUsedAtSet bool
	store          *memStore
}

func (f *fakeAccounts) GetByUserName(_ context.Context, name string) (*users.User, error) {
	for _, u := range f.byID {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := f.byID[id]
	if !ok || !u.Usable() {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeAccounts) SetPassword(_ context.Context, id int64, password string) error {
	if f.failSet != nil {
		return f.failSet
	}
	for _, t := range f.store.rows {
		if t.UserID == id && t.IsUsed {
			f.tokenUsedAtSet = true
		}
	}
	f.passwords[id] = password
	return nil
}

type sentMail struct {
	template, name, email string
	data                  any
}

type fakeMailer struct {
	sent []sentMail
	fail error
}

func (f *fakeMailer) Send(templateFile, username, email string, data any) (int, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	f.sent = append(f.sent, sentMail{templateFile, username, email, data})
	return 200, nil
}

type fixture struct {
	svc      *Service
	tokens   *Tokens
	store    *memStore
	accounts *fakeAccounts
	mailer   *fakeMailer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	accounts := &fakeAccounts{
		byID: map[int64]*users.User{
			1: {ID: 1, UserName: "minsu", Email: "Minsu@Example.com", Name: "Minsu", IsActive: true},
			2: {ID: 2, UserName: "ghost", Email: "ghost@example.com", Name: "Ghost", IsActive: false},
		},
		passwords: map[int64]string{},
		store:     store,
	}
	f := &fixture{
		store:    store,
		accounts: accounts,
		mailer:   &fakeMailer{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.tokens = NewTokens(store, DefaultTokenTTL)
	f.tokens.now = func() time.Time { return f.now }
	f.svc = NewService(f.tokens, accounts, f.mailer, "https://shop.test/", zap.NewNop().Sugar())
	return f
}

func (f *fixture) issue(t *testing.T) *Issued {
	t.Helper()
	issued, err := f.tokens.Issue(context.Background(), 1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return issued
}

func TestIssue_SetsExpiryAndHidesValue(t *testing.T) {
	f := newFixture(t)
	issued := f.issue(t)

	row := f.store.rows[issued.TokenID]
	if !row.ExpireAt.Equal(f.now.Add(30 * time.Minute)) {
		t.Errorf("expire_at = %v, want now+30m", row.ExpireAt)
	}
	if row.IsUsed {
		t.Errorf("a new token must not be used")
	}
	if row.TokenHash == issued.Value || row.TokenHash != hashToken(issued.Value) {
		t.Errorf("only the hash of the value may be stored")
	}

	second := f.issue(t)
	if second.TokenID == issued.TokenID || second.Value == issued.Value {
		t.Errorf("each request must issue an independent token")
	}
	if _, err := f.tokens.Validate(context.Background(), issued.TokenID, issued.Value); err != nil {
		t.Errorf("earlier token should stay valid: %v", err)
	}
}

func TestValidate_Precedence(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.tokens.Validate(ctx, 99, "x"); !errors.Is(err, ErrInvalid) || !errors.Is(err, ErrTokenNotFound) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("used beats expired", func(t *testing.T) {
		f := newFixture(t)
		issued := f.issue(t)
		f.store.rows[issued.TokenID].IsUsed = true
		f.now = f.now.Add(time.Hour)
		if _, err := f.tokens.Validate(ctx, issued.TokenID, "wrong"); !errors.Is(err, ErrTokenUsed) {
			t.Fatalf("got %v, want ErrTokenUsed", err)
		}
	})

	t.Run("expired beats mismatch", func(t *testing.T) {
		f := newFixture(t)
		issued := f.issue(t)
		f.now = f.now.Add(30 * time.Minute)
		_, err := f.tokens.Validate(ctx, issued.TokenID, "wrong")
		if !errors.Is(err, ErrExpired) || errors.Is(err, ErrInvalid) {
			t.Fatalf("got %v, want ErrExpired only", err)
		}
	})

	t.Run("trailing character", func(t *testing.T) {
		f := newFixture(t)
		issued := f.issue(t)
		for _, v := range []string{issued.Value + "x", issued.Value[:len(issued.Value)-1], issued.Value + " "} {
			if _, err := f.tokens.Validate(ctx, issued.TokenID, v); !errors.Is(err, ErrTokenMismatch) {
				t.Fatalf("value %q: got %v, want ErrTokenMismatch", v, err)
			}
		}
	})

	t.Run("case is significant", func(t *testing.T) {
		f := newFixture(t)
		issued := f.issue(t)
		upper := []byte(issued.Value)
		for i, c := range upper {
			if c >= 'a' && c <= 'f' {
				upper[i] = c - 32
				break
			}
		}
		if string(upper) == issued.Value {
			t.Skip("token has no letters")
		}
		if _, err := f.tokens.Validate(ctx, issued.TokenID, string(upper)); !errors.Is(err, ErrTokenMismatch) {
			t.Fatalf("got %v, want ErrTokenMismatch", err)
		}
	})
}

func TestRequestReset_UniformOutcome(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name, user, email string
		wantMail          bool
	}{
		{"unknown user", "nobody", "nobody@example.com", false},
		{"email mismatch", "minsu", "other@example.com", false},
		{"inactive account", "ghost", "ghost@example.com", false},
		{"match ignores email case", "minsu", "minsu@example.COM", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.svc.RequestReset(ctx, tc.user, tc.email); err != nil {
				t.Fatalf("request reset must not reveal the outcome, got %v", err)
			}
			if got := len(f.mailer.sent) == 1; got != tc.wantMail {
				t.Fatalf("mail sent = %v, want %v", got, tc.wantMail)
			}
			if got := len(f.store.rows) == 1; got != tc.wantMail {
				t.Fatalf("token issued = %v, want %v", got, tc.wantMail)
			}
		})
	}
}

func TestRequestReset_MailsLinkWithTokenID(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.RequestReset(context.Background(), "minsu", "minsu@example.com"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one mail")
	}
	vars := f.mailer.sent[0].data.(struct {
		Username  string
		ResetURL  string
		ExpiresIn string
	})
	u, err := url.Parse(vars.ResetURL)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if u.Host != "shop.test" || u.Path != "/reset-password" {
		t.Errorf("link = %s", vars.ResetURL)
	}
	id, _ := strconv.ParseInt(u.Query().Get("tokenId"), 10, 64)
	if err := f.svc.Check(context.Background(), id, u.Query().Get("token")); err != nil {
		t.Errorf("mailed link should validate: %v", err)
	}
}

func TestRequestReset_MailFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.mailer.fail = errors.New("smtp down")
	if err := f.svc.RequestReset(context.Background(), "minsu", "minsu@example.com"); err == nil {
		t.Fatalf("expected the mail failure to surface")
	}
}

func TestReset_ConsumesAfterPasswordUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := f.issue(t)

	if err := f.svc.Reset(ctx, issued.TokenID, issued.Value, "newpass1", "newpass2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("confirm mismatch: got %v", err)
	}
	if err := f.svc.Reset(ctx, issued.TokenID, issued.Value, "newpass1", "newpass1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if f.accounts.passwords[1] != "newpass1" {
		t.Fatalf("password not updated")
	}
	if f.accounts.tokenUsedAtSet {
		t.Fatalf("token was consumed before the password update")
	}
	if !f.store.rows[issued.TokenID].IsUsed {
		t.Fatalf("token should be consumed after a successful reset")
	}
	if err := f.svc.Reset(ctx, issued.TokenID, issued.Value, "again12", "again12"); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("second use: got %v, want ErrTokenUsed", err)
	}
}

func TestReset_FailedUpdateKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issued := f.issue(t)
	f.accounts.failSet = errors.New("db down")

	if err := f.svc.Reset(ctx, issued.TokenID, issued.Value, "newpass1", "newpass1"); err == nil {
		t.Fatalf("expected the update failure")
	}
	if f.store.rows[issued.TokenID].IsUsed {
		t.Fatalf("a failed update must not burn the token")
	}

	f.accounts.failSet = nil
	if err := f.svc.Reset(ctx, issued.TokenID, issued.Value, "newpass1", "newpass1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestReset_DisabledUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	issued, err := f.tokens.Issue(context.Background(), 2)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := f.svc.Reset(context.Background(), issued.TokenID, issued.Value, "newpass1", "newpass1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
	if f.store.rows[issued.TokenID].IsUsed {
		t.Fatalf("token must stay unused")
	}
}
