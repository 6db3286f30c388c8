package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/storage"
	"storefront/internal/domain/users"
	"storefront/internal/ratelimiter"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// memUsers is an in-memory users.Store.
type memUsers struct {
	mu     sync.Mutex
	rows   map[int64]*users.User
	nextID int64
}

func newMemUsers() *memUsers { return &memUsers{rows: map[int64]*users.User{}} }

func (m *memUsers) Create(_ context.Context, u *users.User, _ *users.InitialAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.UserName == u.UserName {
			return users.ErrDuplicateUserName
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return users.ErrDuplicateEmail
		}
	}
	m.nextID++
	u.ID, u.IsActive = m.nextID, true
	m.rows[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || !u.Usable() {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByUserName(_ context.Context, name string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.UserName == name {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *memUsers) FindByNameAndEmail(_ context.Context, name, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Name == name && u.Email == email && u.Usable() {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *memUsers) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) UpdateProfile(context.Context, *users.User) error { return nil }

func (m *memUsers) UpdatePassword(_ context.Context, u *users.User) error {
	u.RefreshToken = nil
	return nil
}

func (m *memUsers) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.rows[id].IsActive, m.rows[id].DeletedAt = false, &now
	return nil
}

func (m *memUsers) SaveRefreshToken(_ context.Context, id int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].RefreshToken = &token
	return nil
}

func (m *memUsers) GetRefreshToken(_ context.Context, id int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok || u.RefreshToken == nil {
		return "", users.ErrNotFound
	}
	return *u.RefreshToken, nil
}

func (m *memUsers) DeleteRefreshToken(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].RefreshToken = nil
	return nil
}

// memCategories serves a fixed category table.
type memCategories struct {
	rows []*categories.Category
}

func (m *memCategories) ListAll(context.Context) ([]*categories.Category, error) { return m.rows, nil }

func (m *memCategories) GetByID(_ context.Context, id int64) (*categories.Category, error) {
	for _, c := range m.rows {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, categories.ErrNotFound
}

func (m *memCategories) Create(_ context.Context, in categories.CreateInput) (*categories.Category, error) {
	c := &categories.Category{ID: int64(len(m.rows) + 1), ParentID: in.ParentID, Name: in.Name, IsActive: true}
	m.rows = append(m.rows, c)
	return c, nil
}

func (m *memCategories) Update(ctx context.Context, id int64, in categories.UpdateInput) (*categories.Category, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ParentID, c.Name, c.IsActive = in.ParentID, in.Name, in.IsActive
	return c, nil
}

func (m *memCategories) SoftDelete(context.Context, int64) error { return nil }
func (m *memCategories) CountActiveChildren(context.Context, int64) (int, error) { return 0, nil }
func (m *memCategories) CountProducts(context.Context, int64) (int, error) { return 0, nil }

type productCategories []int64

func (p productCategories) DistinctCategoryIDs(context.Context) ([]int64, error) { return p, nil }

func ptr[T any](v T) *T { return &v }

type testApp struct {
	app   *application
	users *memUsers
	redis *miniredis.Miniredis
	mux   http.Handler
}

func newTestApplication(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Addr:        ":0",
		Env:         "test",
		FrontendURL: "http://localhost:3000",
		Auth: config.AuthConfig{
			BasicUser:       "ops",
			BasicPass:       "ops-secret",
			TokenSecret:     "access-secret",
			RefreshSecret:   "refresh-secret",
			AccessTokenExp:  time.Hour,
			RefreshTokenExp: 2 * time.Hour,
			Issuer:          "storefront-test",
		},
		RateLimiter: config.RateLimiterConfig{
			Enabled:              true,
			Store:                "redis",
			RequestsPerTimeFrame: 3,
			TimeFrame:            time.Minute,
		},
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	limiter := ratelimiter.NewRedisFixedWindowLimiter(rdb, cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)

	logger := zap.NewNop().Sugar()
	memUsers := newMemUsers()
	catStore := &memCategories{rows: []*categories.Category{
		{ID: 1, Name: "Clothing", IsActive: true},
		{ID: 2, ParentID: ptr(int64(1)), Name: "Shirts", IsActive: true},
		{ID: 3, Name: "Shoes", IsActive: true},
	}}
	menu := categories.NewMenuService(catStore, productCategories{2}, cache.NewRedisCache(rdb), time.Minute, logger)

	app := &application{
		config:        cfg,
		store:         storage.NewContainer(nil),
		logger:        logger,
		authenticator: auth.NewJWTAuthenticator(cfg.Auth),
		rateLimiter:   limiter,
		services: services{
			users:      users.NewService(memUsers, logger),
			categories: categories.NewService(catStore, menu, logger),
			menu:       menu,
		},
	}
	return &testApp{app: app, users: memUsers, redis: mr, mux: app.mount()}
}

func (ta *testApp) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	ta.mux.ServeHTTP(rr, req)
	return rr
}

func basicAuth(user, pass string) map[string]string {
	return map[string]string{"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))}
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// signUp registers and logs in a user, returning its token pair.
func (ta *testApp) signUp(t *testing.T, userName string) TokenResponse {
	t.Helper()
	rr := ta.do(t, http.MethodPost, "/v1/authentication/user", map[string]any{
		"user_name": userName,
		"email":     userName + "@example.com",
		"password":  "secret1",
		"name":      "Test " + userName,
		"phone":     "010-1234-5678",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", userName, rr.Code, rr.Body)
	}
	return ta.login(t, userName, "secret1")
}

func (ta *testApp) login(t *testing.T, userName, password string) TokenResponse {
	t.Helper()
	rr := ta.do(t, http.MethodPost, "/v1/authentication/token", map[string]string{
		"user_name": userName,
		"password":  password,
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", userName, rr.Code, rr.Body)
	}
	var env struct {
		Data TokenResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return env.Data
}
