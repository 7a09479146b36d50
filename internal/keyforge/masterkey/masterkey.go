// Package masterkey turns a human passphrase plus a small public salt into
// a 64-byte master seed. The derivation is deliberately slow (PBKDF2 with
// half a million iterations) and deliberately rigid about its salt
// formatting: any change to the separator, case, or version prefix below
// silently breaks recovery for every vault derived before the change.
package masterkey

import (
	"fmt"
	"strings"

	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

const (
	// DefaultUserLabel is used when the caller does not supply one.
	DefaultUserLabel = "default"
	// DefaultVersion is used when the caller does not supply one.
	DefaultVersion = 1

	pbkdf2Iterations = 500_000
	seedLen          = 64
)

// Seed is the 64-byte output of password-based master derivation.
type Seed [seedLen]byte

// Derive computes the master seed for (passphrase, userLabel, version).
//
//	saltString = "keyforge:" + lowercase(userLabel) + ":v" + version
//	salt       = SHA-256(saltString)
//	seed       = PBKDF2-HMAC-SHA512(passphrase, salt, 500000, 64)
//
// An empty userLabel defaults to "default"; a zero version defaults to 1.
// The function is pure and deterministic: the same three inputs always
// produce the same seed, and there is no implicit caching.
func Derive(passphrase string, userLabel string, version uint) Seed {
	if userLabel == "" {
		userLabel = DefaultUserLabel
	}
	if version == 0 {
		version = DefaultVersion
	}

	saltString := SaltString(userLabel, version)
	salt := primitives.SHA256([]byte(saltString))

	key := primitives.PBKDF2SHA512([]byte(passphrase), salt, pbkdf2Iterations, seedLen)

	var out Seed
	copy(out[:], key)
	return out
}

// SaltString reproduces the exact salt-string formatting consumed by
// Derive. Exposed so tests and the recovery orchestrator can reconstruct
// it without duplicating the format string.
func SaltString(userLabel string, version uint) string {
	return fmt.Sprintf("keyforge:%s:v%d", strings.ToLower(userLabel), version)
}

// Scrub destroys the seed's bytes in place (random, then 0xFF, then zero)
// so the underlying memory no longer carries recoverable key material.
func (s *Seed) Scrub() {
	primitives.Scrub(s[:])
}

// Bytes returns the seed's 64 bytes as a slice. Callers that only need
// read access should prefer this over copying the array.
func (s *Seed) Bytes() []byte {
	return s[:]
}
