package auth

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	tokens, err := NewTokens("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	token, exp, err := tokens.Generate("user-42", []string{"Teller", "auditor", "teller"}, 30*time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiration, got %v", exp)
	}

	claims, err := tokens.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if len(claims.Roles) != 2 || !slices.Contains(claims.Roles, RoleTeller) || !slices.Contains(claims.Roles, RoleAuditor) {
		t.Fatalf("roles not normalized: %v", claims.Roles)
	}
	if claims.ID == "" {
		t.Fatal("expected jti")
	}
}

func TestRejectsForeignAndExpiredTokens(t *testing.T) {
	a, _ := NewTokens("secret-a")
	b, _ := NewTokens("secret-b")

	token, _, err := a.Generate("u", []string{"teller"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := a.Generate("u", nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	a.now = time.Now
	if _, err := a.ParseAndValidate(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := a.ParseAndValidate("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestGenerateValidation(t *testing.T) {
	tokens, _ := NewTokens("s")
	if _, _, err := tokens.Generate(" ", nil, time.Minute); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := tokens.Generate("u", nil, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewTokens(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestContextRoles(t *testing.T) {
	ctx := ContextWithUser(context.Background(), " user-1 ", []string{"Admin", "admin", ""})
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-1" {
		t.Fatalf("unexpected user: %q %v", id, ok)
	}
	if !HasAnyRole(ctx, "viewer", "ADMIN") {
		t.Fatal("expected admin role")
	}
	if HasAnyRole(ctx, RoleTeller) {
		t.Fatal("unexpected teller role")
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("expected no user")
	}
}
