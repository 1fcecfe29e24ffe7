package password

import "testing"

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := Compare(hash, "correct horse"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := Compare(hash, "wrong horse"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := Hash("short"); err != ErrInvalidLength {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}
