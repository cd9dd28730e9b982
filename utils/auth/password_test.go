package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("20100514ramesh")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "20100514ramesh" {
		t.Fatalf("expected non-empty bcrypt hash, got %q", hash)
	}

	if err := VerifyPassword(hash, "20100514ramesh"); err != nil {
		t.Fatalf("expected password to verify, got: %v", err)
	}
	if err := VerifyPassword(hash, "wrongpass"); err != ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got: %v", err)
	}
}

func TestHashPasswordProducesUniqueSalts(t *testing.T) {
	h1, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("samepassword")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestIsPasswordValid(t *testing.T) {
	if IsPasswordValid("short") {
		t.Fatalf("expected 5-char password to be rejected")
	}
	if !IsPasswordValid("longer1") {
		t.Fatalf("expected 7-char password to be accepted")
	}
}
