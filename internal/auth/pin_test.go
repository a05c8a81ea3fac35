package auth

import "testing"

func TestHashPinDeterministic(t *testing.T) {
	a := HashPin("1234")
	b := HashPin("1234")
	if a != b {
		t.Error("same PIN should hash identically")
	}
	if a == HashPin("1235") {
		t.Error("different PINs should not collide")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestVerifyPin(t *testing.T) {
	hash := HashPin("0000")
	if !VerifyPin("0000", hash) {
		t.Error("correct PIN rejected")
	}
	if VerifyPin("0001", hash) {
		t.Error("wrong PIN accepted")
	}
	if VerifyPin("0000", "") {
		t.Error("empty stored hash must never verify")
	}
}
