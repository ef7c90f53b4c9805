package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "pw123456" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !CheckPassword("pw123456", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong-password", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	h1, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	h2, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct salts for identical passwords")
	}
}

func TestCheckPasswordRejectsMalformedHash(t *testing.T) {
	if CheckPassword("pw123456", "not-a-bcrypt-hash") {
		t.Fatalf("expected malformed hash to fail")
	}
}
