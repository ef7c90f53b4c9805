package usertoken

import (
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected subject: %q", userID)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	for _, token := range []string{"", "   ", "not.a.token", "a.b"} {
		if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got: %v", token, err)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := NewIssuer("secret-a", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	other, err := NewIssuer("secret-b", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	past := time.Now().UTC().Add(-2 * time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(past),
		ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if _, err := issuer.Verify(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got: %v", err)
	}
}

func TestVerifyRejectsTokenWithoutExpiry(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	claims := jwt.RegisteredClaims{Subject: "user-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp claim, got: %v", err)
	}
}
