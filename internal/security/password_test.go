package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("hash must not be the plain text")
	}
	if err := CheckPassword(hash, "secret1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "secret2"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestCheckMissing(t *testing.T) {
	if err := CheckMissing("anything"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPassword_ByteLimit(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72 bytes should hash, got %v", err)
	}
	// 60 runes, 120 bytes
	if _, err := HashPassword(strings.Repeat("é", 60)); !errors.Is(err, bcrypt.ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
