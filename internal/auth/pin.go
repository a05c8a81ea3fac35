// Package auth hashes profile PINs. The construction is a single SHA-256 over
// a static prefix plus the PIN. It is deliberately kept weak-but-stable: hashes
// are synced between devices and must match everywhere, and the PIN is a
// convenience gate for local profiles, not an authentication boundary.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const pinSalt = "habitgrid/pin/v1"

// HashPin returns the hex-encoded PIN hash stored on the user row.
func HashPin(pin string) string {
	sum := sha256.Sum256([]byte(pinSalt + pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPin reports whether pin matches the stored hash.
func VerifyPin(pin, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPin(pin)), []byte(hash)) == 1
}
