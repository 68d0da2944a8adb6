package utils

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("access", "refresh", 15*time.Minute, time.Hour)

	token, err := ti.GenerateAccessToken("u1", "Ann", "ann@example.com", "host")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := ti.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "ann@example.com" || claims.Role != "host" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	ti := NewTokenIssuer("access", "refresh", 15*time.Minute, time.Hour)

	refresh, _ := ti.GenerateRefreshToken("u1")
	if _, err := ti.ValidateAccessToken(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	access, _ := ti.GenerateAccessToken("u1", "Ann", "ann@example.com", "guest")
	if _, err := ti.ValidateRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
	if _, err := ti.ValidateRefreshToken(refresh); err != nil {
		t.Errorf("ValidateRefreshToken: %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ti := NewTokenIssuer("access", "refresh", time.Minute, time.Hour).
		WithClock(func() time.Time { return issued })
	token, err := ti.GenerateAccessToken("u1", "Ann", "ann@example.com", "guest")
	if err != nil {
		t.Fatal(err)
	}

	ti.WithClock(func() time.Time { return issued.Add(2 * time.Minute) })
	if _, err := ti.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestGarbageToken(t *testing.T) {
	ti := NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	if _, err := ti.ValidateAccessToken("not-a-token"); err == nil {
		t.Error("expected error")
	}
}
