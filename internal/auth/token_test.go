package auth

import (
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", time.Hour)

	token, err := issuer.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("Expected user ID user-1, got %s", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Expected email alice@example.com, got %s", claims.Email)
	}
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", time.Hour)
	other := NewTokenIssuer("different-secret", time.Hour)

	token, err := issuer.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("Expected verification with a different secret to fail")
	}
}

func TestTokenVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", -time.Minute)

	token, err := issuer.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Error("Expected verification of an expired token to fail")
	}
}

func TestTokenVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("jwt-secret", time.Hour)

	if _, err := issuer.Verify("not.a.token"); err == nil {
		t.Error("Expected verification of garbage to fail")
	}
}
