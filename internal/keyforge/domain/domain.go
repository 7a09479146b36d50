// Package domain implements domain-separated key expansion over a master
// seed: HKDF-SHA512-shaped, but with a deliberate deviation from strict
// HKDF-Expand for outputs of 64 bytes or fewer (see Derive). Matching that
// deviation exactly is what lets an implementation recover keys from a
// vault created by any other conforming implementation.
package domain

import (
	"fmt"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

// Exact domain separation tags. Changing any of these strings changes
// every key derived under that tag.
const (
	DomainSSH            = "keyforge:ssh:v1"
	DomainGPG            = "keyforge:gpg:v1"
	DomainAge            = "keyforge:age:v1"
	DomainWalletBIP39    = "keyforge:wallet:bip39:v1"
	DomainWalletPayment  = "keyforge:wallet:payment:v1"
	DomainWalletMonero   = "keyforge:wallet:monero:v1"
	DomainVaultEncrypt   = "keyforge:vault:encrypt:v1"
	DomainVaultHMAC      = "keyforge:vault:hmac:v1"
	DomainVaultIPNS      = "keyforge:vault:ipns:v1"
	DomainServiceTOTP    = "keyforge:service:totp:v1"
	DomainServiceAPI     = "keyforge:service:api:v1"
	DomainServiceWebAuth = "keyforge:service:webauthn:v1"
	DomainNostr          = "keyforge:nostr:v1"
	DomainShamir         = "keyforge:shamir:v1"
	DomainCanary         = "keyforge:canary:v1"
)

const (
	prkInfo  = "keyforge-expand"
	hashSize = 64
	maxLen   = 255 * hashSize
)

// Derive produces len bytes of key material for (domain, index) from
// masterSeed.
//
// The construction:
//
//	PRK  = HMAC-SHA512(key="keyforge-expand", msg=masterSeed)
//	info = domain + ":" + index + ":" + len
//
// For len <= 64 the output is simply the first len bytes of
// HMAC-SHA512(key=PRK, msg=info) — note this omits the single counter byte
// that RFC 5869's HKDF-Expand would append; that omission is load-bearing
// and must not be "fixed".
//
// For len > 64 the output is the standard HKDF-Expand style iteration:
//
//	T_0 = ""
//	T_i = HMAC-SHA512(key=PRK, msg=T_{i-1} || info || byte(i))
//	out = (T_1 || T_2 || ...)[:len]
//
// len must be between 1 and 16320 (255 * 64) inclusive; anything else is a
// BadLength error.
func Derive(masterSeed []byte, domainTag string, index uint32, length int) ([]byte, error) {
	if length < 1 || length > maxLen {
		return nil, corefail.New(corefail.BadLength, "domain.Derive", nil)
	}

	prk := primitives.HMACSHA512([]byte(prkInfo), masterSeed)
	info := []byte(fmt.Sprintf("%s:%d:%d", domainTag, index, length))

	if length <= hashSize {
		out := primitives.HMACSHA512(prk, info)
		return out[:length], nil
	}

	n := (length + hashSize - 1) / hashSize
	if n > 255 {
		return nil, corefail.New(corefail.BadLength, "domain.Derive", nil)
	}

	out := make([]byte, 0, n*hashSize)
	var t []byte
	for i := 1; i <= n; i++ {
		msg := make([]byte, 0, len(t)+len(info)+1)
		msg = append(msg, t...)
		msg = append(msg, info...)
		msg = append(msg, byte(i))
		t = primitives.HMACSHA512(prk, msg)
		out = append(out, t...)
	}
	return out[:length], nil
}

// DeriveMultiple returns count independently derived keys of length len
// under the same domain tag, one per index in [0, count).
func DeriveMultiple(masterSeed []byte, domainTag string, count int, length int) ([][]byte, error) {
	keys := make([][]byte, count)
	for i := 0; i < count; i++ {
		key, err := Derive(masterSeed, domainTag, uint32(i), length)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// ServiceIndex maps a service or hostname label to a deterministic index
// by reading the first 4 bytes of SHA-256(label) as a little-endian
// uint32. Collisions are accepted: the cost of a collision is simply key
// reuse across two services, not a security break.
func ServiceIndex(label string) uint32 {
	digest := primitives.SHA256([]byte(label))
	return readU32LE(digest[:4])
}

// HostnameIndex is an alias of ServiceIndex used by the SSH generator; the
// rule is identical, the name documents intent at call sites.
func HostnameIndex(hostname string) uint32 {
	return ServiceIndex(hostname)
}

func readU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
