package auth

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter22" {
		t.Error("Hash must not equal the plaintext password")
	}

	if !CheckPassword(hash, "hunter22") {
		t.Error("Expected correct password to verify")
	}
	if CheckPassword(hash, "hunter23") {
		t.Error("Expected wrong password to fail verification")
	}
	if CheckPassword("not-a-hash", "hunter22") {
		t.Error("Expected malformed hash to fail verification")
	}
}
