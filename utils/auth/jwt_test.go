package auth

import (
	"testing"
	"time"

	"schoolportal/model"
)

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret: "test-secret-do-not-use",
		Expiry: expiry,
		Issuer: "schoolportal-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateToken(42, "class5a12", model.RoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "class5a12" {
		t.Fatalf("expected username class5a12, got %s", claims.Username)
	}
	if claims.Role != model.RoleUser {
		t.Fatalf("expected role USER, got %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatalf("expected a JTI to be set")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.GenerateToken(1, "admin", model.RoleSuperAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := m.ValidateToken(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got: %v", err)
	}
}

func TestValidateTamperedToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateToken(1, "admin", model.RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	other := NewJWTManager(JWTConfig{Secret: "a-different-secret", Expiry: time.Hour, Issuer: "schoolportal-test"})
	if _, err := other.ValidateToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got: %v", err)
	}

	if _, err := m.ValidateToken(token + "x"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for mangled token, got: %v", err)
	}
}
