package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestCredentialsVerify(t *testing.T) {
	creds, err := NewCredentials("root", mustHash(t, "open-sesame"))
	if err != nil {
		t.Fatalf("NewCredentials: %v", err)
	}
	if err := creds.Verify("root", "open-sesame"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	for _, tc := range []struct{ user, pw string }{
		{"root", "wrong"},
		{"admin", "open-sesame"},
		{"", ""},
	} {
		if err := creds.Verify(tc.user, tc.pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("Verify(%q, %q) = %v, want ErrInvalidCredentials", tc.user, tc.pw, err)
		}
	}
}

func TestNewCredentialsRejectsBadInput(t *testing.T) {
	if _, err := NewCredentials("root", "not-a-hash"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for plaintext hash, got %v", err)
	}
	if _, err := NewCredentials(" ", mustHash(t, "x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty user, got %v", err)
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	creds, err := NewCredentials("root", h)
	if err != nil {
		t.Fatal(err)
	}
	if err := creds.Verify("root", "s3cret"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
