// Package totp derives a per-service TOTP secret from a master seed and
// computes RFC 6238 codes over it.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/domain"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

const secretLen = 20

// Algorithm selects the HMAC hash function backing code generation.
type Algorithm string

const (
	SHA1   Algorithm = "SHA1"
	SHA256 Algorithm = "SHA256"
	SHA512 Algorithm = "SHA512"
)

// Options configures Code. The zero value is the RFC 6238 default:
// SHA1, 6 digits, a 30-second period.
type Options struct {
	Algorithm Algorithm
	Digits    int
	Period    int64
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = SHA1
	}
	if o.Digits == 0 {
		o.Digits = 6
	}
	if o.Period == 0 {
		o.Period = 30
	}
	return o
}

// DeriveSecret computes the 20-byte TOTP secret for service.
//
// index = little-endian uint32 of the first 4 bytes of
// HMAC-SHA256(key=service, msg="") — an index derived from the service
// label itself, not a caller-supplied counter. The secret is then
// DomainDerivation(seed, "keyforge:service:totp:v1", index, 20).
func DeriveSecret(masterSeed []byte, service string) ([]byte, error) {
	mac := primitives.HMACSHA256([]byte(service), nil)
	index := readU32LE(mac[:4])
	return domain.Derive(masterSeed, domain.DomainServiceTOTP, index, secretLen)
}

// Code computes the RFC 6238 TOTP code for secret at unix time now,
// under opts (zero value uses SHA1/6 digits/30s period).
func Code(secret []byte, now int64, opts Options) (string, error) {
	opts = opts.withDefaults()
	if opts.Digits != 6 && opts.Digits != 8 {
		return "", corefail.New(corefail.BadLength, "totp.Code", fmt.Errorf("digits must be 6 or 8"))
	}

	counter := uint64(now) / uint64(opts.Period)
	msg := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter)
		counter >>= 8
	}

	newHash, err := hasher(opts.Algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(newHash, secret)
	mac.Write(msg)
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	binCode := (uint32(sum[offset])&0x7f)<<24 |
		(uint32(sum[offset+1])&0xff)<<16 |
		(uint32(sum[offset+2])&0xff)<<8 |
		(uint32(sum[offset+3]) & 0xff)

	mod := uint32(1)
	for i := 0; i < opts.Digits; i++ {
		mod *= 10
	}
	code := binCode % mod

	return fmt.Sprintf("%0*d", opts.Digits, code), nil
}

func hasher(alg Algorithm) (func() hash.Hash, error) {
	switch alg {
	case SHA1:
		return sha1.New, nil
	case SHA256:
		return sha256.New, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, corefail.New(corefail.InvalidFormat, "totp.hasher", fmt.Errorf("unknown algorithm %q", alg))
	}
}

// Display inserts a single space at the midpoint of a code for
// human-readable presentation ("123 456").
func Display(code string) string {
	if len(code) < 2 {
		return code
	}
	mid := len(code) / 2
	return code[:mid] + " " + code[mid:]
}

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Base32Encode encodes data using the RFC 4648 base32 alphabet, padded
// with '=' to a multiple of 8 characters.
func Base32Encode(data []byte) string {
	var sb strings.Builder
	for i := 0; i < len(data); i += 5 {
		chunk := data[i:min(i+5, len(data))]
		sb.WriteString(encodeChunk(chunk))
	}
	return sb.String()
}

func encodeChunk(chunk []byte) string {
	var buf [5]byte
	copy(buf[:], chunk)

	bits := uint64(buf[0])<<32 | uint64(buf[1])<<24 | uint64(buf[2])<<16 | uint64(buf[3])<<8 | uint64(buf[4])

	charsByLen := map[int]int{1: 2, 2: 4, 3: 5, 4: 7, 5: 8}
	numChars := charsByLen[len(chunk)]

	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = base32Alphabet[bits&0x1f]
		bits >>= 5
	}
	for i := numChars; i < 8; i++ {
		out[i] = '='
	}
	return string(out)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func readU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
