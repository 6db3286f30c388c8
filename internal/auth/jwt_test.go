package auth

import (
	"testing"
	"time"

	"storefront/internal/config"
)

func newTestAuthenticator() *JWTAuthenticator {
	return NewJWTAuthenticator(config.AuthConfig{
		TokenSecret:     "access-secret",
		RefreshSecret:   "refresh-secret",
		Issuer:          "storefront",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
	})
}

func TestGenerateAndValidate(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(42, "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tok, err := a.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	id, err := UserID(tok)
	if err != nil || id != 42 {
		t.Fatalf("user id = %d, %v", id, err)
	}

	if _, err := a.ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	a := newTestAuthenticator()
	access, refresh, err := a.GenerateTokens(1, "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(refresh); err == nil {
		t.Errorf("refresh token accepted as access token")
	}
	if _, err := a.ValidateRefreshToken(access); err == nil {
		t.Errorf("access token accepted as refresh token")
	}
}

func TestExpiry(t *testing.T) {
	a := newTestAuthenticator()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return start }
	access, refresh, err := a.GenerateTokens(1, "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	a.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, err := a.ValidateAccessToken(access); err == nil {
		t.Errorf("expired access token accepted")
	}
	if _, err := a.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("refresh token should outlive the access token: %v", err)
	}
}

func TestRejectsForeignSecret(t *testing.T) {
	a := newTestAuthenticator()
	other := NewJWTAuthenticator(config.AuthConfig{
		TokenSecret: "someone-else", RefreshSecret: "x", Issuer: "storefront",
		AccessTokenExp: time.Hour, RefreshTokenExp: time.Hour,
	})
	forged, _, err := other.GenerateTokens(1, "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := a.ValidateAccessToken(forged); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}
