package token

import "testing"

func TestGenerateRandomTokenIsUnique(t *testing.T) {
	a, err := GenerateRandomToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateRandomToken(32)
	if a == b {
		t.Fatal("expected distinct tokens")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 base64url chars for 32 bytes, got %d", len(a))
	}
}

func TestHashSHA256IsStable(t *testing.T) {
	if HashSHA256("abc") != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatal("unexpected sha256 digest")
	}
}
