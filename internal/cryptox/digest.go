package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailHash is the unique lookup key stored next to an email address.
func EmailHash(email string) string {
	return SHA256Hex(NormalizeEmail(email))
}

func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// EqualSecret compares two secrets by their SHA-256 digests in constant
// time, so neither the length nor a shared prefix of the stored value leaks.
// An empty stored secret never matches.
func EqualSecret(stored, presented string) bool {
	if stored == "" {
		return false
	}
	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
