package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("test-signing-key", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	userID := uuid.New()
	token, err := svc.Issue(userID, "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenService("key-one", time.Hour)
	verifier, _ := NewTokenService("key-two", time.Hour)

	token, err := issuer.Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := verifier.Verify(token); err == nil {
		t.Error("Expected verification with wrong key to fail")
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-signing-key", -time.Minute)

	token, err := svc.Issue(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := svc.Verify(token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-signing-key", time.Hour)
	if _, err := svc.Verify("not-a-token"); err == nil {
		t.Error("Expected garbage token to be rejected")
	}
}

func TestNewTokenService_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Error("Expected empty signing key to be rejected")
	}
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("Expected mismatched password to fail")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("owl"); err == nil {
		t.Error("Expected short password to be rejected")
	}
}
