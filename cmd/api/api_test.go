package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/cache"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/passwordreset"
	"storefront/internal/domain/products"
	"storefront/internal/domain/qna"
	"storefront/internal/domain/users"
)

func TestBasicAuthProtectsOpsEndpoints(t *testing.T) {
	ta := newTestApplication(t)

	for _, path := range []string{"/v1/health", "/v1/debug/vars", "/v1/metrics"} {
		t.Run(path, func(t *testing.T) {
			rr := ta.do(t, http.MethodGet, path, nil, nil)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("no credentials: got %d", rr.Code)
			}
			if rr.Header().Get("WWW-Authenticate") == "" {
				t.Errorf("missing WWW-Authenticate header")
			}

			rr = ta.do(t, http.MethodGet, path, nil, basicAuth("ops", "wrong"))
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("wrong password: got %d", rr.Code)
			}
		})
	}

	rr := ta.do(t, http.MethodGet, "/v1/metrics", nil, basicAuth("ops", "ops-secret"))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Errorf("metrics body does not look like prometheus output")
	}
}

func TestHealthReportsUnavailableDatabase(t *testing.T) {
	ta := newTestApplication(t)

	rr := ta.do(t, http.MethodGet, "/v1/health", nil, basicAuth("ops", "ops-secret"))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	var env struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data["status"] != "unavailable" || env.Data["version"] != version {
		t.Errorf("body = %v", env.Data)
	}
}

func TestAuthTokenMiddleware(t *testing.T) {
	ta := newTestApplication(t)
	tokens := ta.signUp(t, "minsu")

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{"Authorization": "Token " + tokens.AccessToken}, http.StatusUnauthorized},
		{"garbage token", bearer("not-a-jwt"), http.StatusUnauthorized},
		{"refresh token used as access token", bearer(tokens.RefreshToken), http.StatusUnauthorized},
		{"valid", bearer(tokens.AccessToken), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ta.do(t, http.MethodGet, "/v1/users/me", nil, tt.header)
			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d: %s", rr.Code, tt.want, rr.Body)
			}
		})
	}

	rr := ta.do(t, http.MethodGet, "/v1/users/me", nil, bearer(tokens.AccessToken))
	var env struct {
		Data users.User `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.UserName != "minsu" {
		t.Errorf("user_name = %q", env.Data.UserName)
	}
}

func TestDeletedAccountLosesAccess(t *testing.T) {
	ta := newTestApplication(t)
	tokens := ta.signUp(t, "minsu")

	rr := ta.do(t, http.MethodDelete, "/v1/users/me", map[string]string{"password": "secret1"}, bearer(tokens.AccessToken))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d %s", rr.Code, rr.Body)
	}

	rr = ta.do(t, http.MethodGet, "/v1/users/me", nil, bearer(tokens.AccessToken))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("access after delete: got %d", rr.Code)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ta := newTestApplication(t)
	ta.signUp(t, "minsu")

	rr := ta.do(t, http.MethodPost, "/v1/authentication/user", map[string]any{
		"user_name": "minsu",
		"email":     "other@example.com",
		"password":  "secret1",
		"name":      "Other",
		"phone":     "010",
	}, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate user name: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), users.ErrDuplicateUserName.Error()) {
		t.Errorf("body = %s", rr.Body)
	}

	rr = ta.do(t, http.MethodPost, "/v1/authentication/user", map[string]any{
		"user_name": "minsu2",
		"email":     "bad-email",
		"password":  "secret1",
		"name":      "Other",
		"phone":     "010",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: got %d", rr.Code)
	}
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	ta := newTestApplication(t)
	ta.signUp(t, "minsu")

	var bodies []string
	for _, creds := range [][2]string{{"minsu", "wrongpass"}, {"nobody", "secret1"}} {
		rr := ta.do(t, http.MethodPost, "/v1/authentication/token", map[string]string{
			"user_name": creds[0],
			"password":  creds[1],
		}, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%v: got %d", creds, rr.Code)
		}
		bodies = append(bodies, rr.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Errorf("responses differ:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestRateLimiterOutageLetsRequestsThrough(t *testing.T) {
	ta := newTestApplication(t)
	ta.redis.Close()

	for i := 0; i < 4; i++ {
		rr := ta.do(t, http.MethodPost, "/v1/authentication/token", map[string]string{
			"user_name": "nobody",
			"password":  "secret1",
		}, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d, want 401", i+1, rr.Code)
		}
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	ta := newTestApplication(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = ta.do(t, http.MethodPost, "/v1/authentication/token", map[string]string{
			"user_name": "nobody",
			"password":  "secret1",
		}, nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("4th attempt: got %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After header")
	}

	// other route groups keep their own budget
	rr := ta.do(t, http.MethodGet, "/v1/categories", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("categories after login limit: got %d", rr.Code)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	ta := newTestApplication(t)
	first := ta.signUp(t, "minsu")

	rr := ta.do(t, http.MethodPost, "/v1/authentication/refresh", map[string]string{"refresh_token": first.RefreshToken}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: got %d %s", rr.Code, rr.Body)
	}
	var env struct {
		Data TokenResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Role != users.RoleUser {
		t.Errorf("role = %q", env.Data.Role)
	}

	if env.Data.RefreshToken != first.RefreshToken {
		rr = ta.do(t, http.MethodPost, "/v1/authentication/refresh", map[string]string{"refresh_token": first.RefreshToken}, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("replayed refresh token: got %d", rr.Code)
		}
	}

	rr = ta.do(t, http.MethodPost, "/v1/users/me/logout", nil, bearer(env.Data.AccessToken))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout: got %d", rr.Code)
	}
	rr = ta.do(t, http.MethodPost, "/v1/authentication/refresh", map[string]string{"refresh_token": env.Data.RefreshToken}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: got %d", rr.Code)
	}
}

func TestFindIDReturnsMaskedName(t *testing.T) {
	ta := newTestApplication(t)
	ta.signUp(t, "minsu")

	rr := ta.do(t, http.MethodPost, "/v1/authentication/find-id", map[string]string{
		"name":  "Test minsu",
		"email": "minsu@example.com",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d %s", rr.Code, rr.Body)
	}
	if !strings.Contains(rr.Body.String(), `"mi***"`) {
		t.Errorf("body = %s", rr.Body)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	ta := newTestApplication(t)
	tokens := ta.signUp(t, "minsu")

	rr := ta.do(t, http.MethodPost, "/v1/categories", map[string]string{"name": "Hats"}, bearer(tokens.AccessToken))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("user: got %d, want 403", rr.Code)
	}

	admin := ta.signUp(t, "rootadmin")
	for _, u := range ta.users.rows {
		if u.UserName == "rootadmin" {
			u.Role = users.RoleAdmin
		}
	}
	rr = ta.do(t, http.MethodPost, "/v1/categories", map[string]any{"name": "Hats", "parent_id": 3}, bearer(admin.AccessToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin: got %d %s", rr.Code, rr.Body)
	}

	rr = ta.do(t, http.MethodPut, "/v1/categories/1", map[string]any{"name": "Clothing", "parent_id": 2, "is_active": true}, bearer(admin.AccessToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("moving a category under its child: got %d", rr.Code)
	}
}

func TestCategoryMenuIsCached(t *testing.T) {
	ta := newTestApplication(t)

	rr := ta.do(t, http.MethodGet, "/v1/categories/menu", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	var env struct {
		Data []*categories.Node `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data) != 1 || env.Data[0].Name != "Clothing" || len(env.Data[0].Children) != 1 {
		t.Fatalf("menu = %+v", env.Data)
	}
	if !ta.redis.Exists(cache.Key(categories.MenuCacheKey)) {
		t.Fatalf("menu was not cached")
	}

	rr = ta.do(t, http.MethodGet, "/v1/categories", nil, nil)
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if len(env.Data) != 2 {
		t.Fatalf("full tree should have both roots, got %d", len(env.Data))
	}
}

func TestInvalidIDParam(t *testing.T) {
	ta := newTestApplication(t)

	for _, path := range []string{"/v1/categories/abc/location", "/v1/categories/0/location"} {
		rr := ta.do(t, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d", path, rr.Code)
		}
	}

	rr := ta.do(t, http.MethodGet, "/v1/categories/99/location", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown category: got %d", rr.Code)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	ta := newTestApplication(t)

	tests := []struct {
		err  error
		want int
	}{
		{users.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", products.ErrNotFound), http.StatusNotFound},
		{qna.ErrProductNotFound, http.StatusNotFound},
		{users.ErrDuplicateEmail, http.StatusConflict},
		{categories.ErrHasProducts, http.StatusConflict},
		{qna.ErrForbidden, http.StatusForbidden},
		{users.ErrAdminSelfDelete, http.StatusForbidden},
		{users.ErrWrongPassword, http.StatusBadRequest},
		{products.ErrTooManyThumbs, http.StatusBadRequest},
		{passwordreset.ErrTokenUsed, http.StatusBadRequest},
		{passwordreset.ErrTokenMismatch, http.StatusBadRequest},
		{passwordreset.ErrExpired, http.StatusGone},
		{users.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ta.app.errorResponse(rr, req, tt.err)
			if rr.Code != tt.want {
				t.Fatalf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestInvalidResetTokensShareOneMessage(t *testing.T) {
	ta := newTestApplication(t)

	var bodies []string
	for _, err := range []error{passwordreset.ErrTokenNotFound, passwordreset.ErrTokenUsed, passwordreset.ErrTokenMismatch} {
		rr := httptest.NewRecorder()
		ta.app.errorResponse(rr, httptest.NewRequest(http.MethodPost, "/", nil), err)
		bodies = append(bodies, rr.Body.String())
	}
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Fatalf("messages differ: %q vs %q", bodies[0], b)
		}
	}
	if !strings.Contains(bodies[0], passwordreset.ErrInvalid.Error()) {
		t.Errorf("body = %s", bodies[0])
	}
}
