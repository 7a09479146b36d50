// Package primitives wraps the raw cryptographic building blocks used by
// every layer of the key-derivation pipeline: CSPRNG, constant-time
// comparison, scrubbing, PBKDF2, HMAC, the hash functions domain
// derivation and address encoding need, and the ChaCha20-Poly1305 AEAD.
//
// Every function here is pure; none of them log, and none of them retain
// state between calls.
package primitives

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"

	"github.com/keyforge/keyforge/internal/corefail"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for BIP-32/legacy hash160
	"golang.org/x/crypto/sha3"
)

// Random returns n cryptographically random bytes.
func Random(n int) ([]byte, error) {
	if n < 0 {
		return nil, corefail.New(corefail.BadLength, "primitives.Random", nil)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, corefail.New(corefail.Io, "primitives.Random", err)
	}
	return buf, nil
}

// ConstantTimeEqual reports whether a and b hold the same bytes, without
// branching on the contents. Differing lengths are reported as unequal
// rather than panicking.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Scrub overwrites buf in place: first with random bytes, then with 0xFF,
// then with zero. Used to destroy sensitive key material still referenced
// by a live slice once a session ends.
func Scrub(buf []byte) {
	if len(buf) == 0 {
		return
	}
	if _, err := rand.Read(buf); err != nil {
		// Fall back to a fixed pattern; the final zero pass below still runs.
		for i := range buf {
			buf[i] = 0xAA
		}
	}
	for i := range buf {
		buf[i] = 0xFF
	}
	for i := range buf {
		buf[i] = 0x00
	}
}

// PBKDF2SHA512 derives dkLen bytes from password and salt using
// PBKDF2-HMAC-SHA512 with the given iteration count.
func PBKDF2SHA512(password, salt []byte, iterations, dkLen int) []byte {
	return pbkdf2.Key(password, salt, iterations, dkLen, sha512.New)
}

// HMACSHA256 computes HMAC-SHA256(key, msg).
func HMACSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// HMACSHA512 computes HMAC-SHA512(key, msg).
func HMACSHA512(key, msg []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// SHA1 computes the SHA-1 digest of data. Used only for the GPG-framing
// key-id/fingerprint derivation specified by the vault's private armor
// format, never for anything security-load-bearing.
func SHA1(data []byte) []byte {
	sum := sha1.Sum(data)
	return sum[:]
}

// SHA256 computes the SHA-256 digest of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// RIPEMD160 computes the RIPEMD-160 digest of data.
func RIPEMD160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// Keccak256 computes the Keccak-256 digest of data (the original Keccak
// padding, not the later NIST SHA3-256 variant — this is what Ethereum
// address derivation requires).
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Hash160 computes RIPEMD160(SHA256(data)), the Bitcoin pubkey-hash
// construction used by P2WPKH addresses.
func Hash160(data []byte) []byte {
	return RIPEMD160(SHA256(data))
}

// SealChaCha20Poly1305 encrypts plaintext under key (32 bytes) and nonce
// (12 bytes) with empty associated data, returning ciphertext||tag.
func SealChaCha20Poly1305(key, nonce, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, corefail.New(corefail.AeadFailure, "primitives.Seal", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, corefail.New(corefail.BadLength, "primitives.Seal", nil)
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// OpenChaCha20Poly1305 decrypts ciphertext||tag under key and nonce,
// returning AeadFailure for any tag mismatch or length error.
func OpenChaCha20Poly1305(key, nonce, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, corefail.New(corefail.AeadFailure, "primitives.Open", err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, corefail.New(corefail.BadLength, "primitives.Open", nil)
	}
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, corefail.New(corefail.AeadFailure, "primitives.Open", err)
	}
	return plaintext, nil
}
