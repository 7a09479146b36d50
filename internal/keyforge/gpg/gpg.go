// Package gpg derives Ed25519 keypairs framed as a fixed, Keyforge-private
// ASCII-armored container. The framing is NOT interoperable with real
// OpenPGP implementations — it is documented here exactly as Keyforge
// clients require, and any change to it breaks recovery of existing keys.
package gpg

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/domain"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

const wrapColumns = 64

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User identifies the key owner embedded in the armor body.
type User struct {
	Name    string
	Email   string
	Comment string
}

// Options configures Generate. Service selects the domain-derivation
// index the same way a hostname does for SSH keys.
type Options struct {
	Name    string
	Email   string
	Comment string
	Service string
}

// Key is a derived GPG-framed keypair.
type Key struct {
	KeyID          string // 16 hex chars, uppercase
	Fingerprint    string // 40 hex chars, uppercase
	PublicArmor    string
	PrivateArmor   string
	PublicKeyBytes ed25519.PublicKey
	User           User
}

// Validate reports whether the user metadata meets the advisory shape
// check from the specification. It is informational only: Generate does
// not call it, callers that want to enforce it do so explicitly.
func Validate(u User) error {
	if len(u.Name) < 2 {
		return corefail.New(corefail.InvalidFormat, "gpg.Validate", fmt.Errorf("name too short"))
	}
	if !emailPattern.MatchString(u.Email) {
		return corefail.New(corefail.InvalidFormat, "gpg.Validate", fmt.Errorf("email does not look like user@host.tld"))
	}
	return nil
}

// Generate derives the GPG-framed keypair for opts.
func Generate(masterSeed []byte, opts Options) (*Key, error) {
	index := uint32(0)
	if opts.Service != "" {
		index = domain.ServiceIndex(opts.Service)
	}

	priv32, err := domain.Derive(masterSeed, domain.DomainGPG, index, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	priv := ed25519.NewKeyFromSeed(priv32)
	pub := priv.Public().(ed25519.PublicKey)

	user := User{
		Name:    opts.Name,
		Email:   opts.Email,
		Comment: opts.Comment,
	}
	if user.Name == "" {
		user.Name = "Keyforge User"
	}
	if user.Email == "" {
		user.Email = "user@keyforge.local"
	}

	keyIDSrc := primitives.SHA1(pub)
	keyID := strings.ToUpper(hex.EncodeToString(keyIDSrc[len(keyIDSrc)-8:]))

	fpSrc := append(append([]byte{}, pub...), []byte(user.Name+user.Email)...)
	fingerprint := strings.ToUpper(hex.EncodeToString(primitives.SHA1(fpSrc)))

	pubBody := append([]byte{0x99}, pub...)
	pubBody = append(pubBody, []byte(user.Name)...)
	pubBody = append(pubBody, []byte(user.Email)...)
	publicArmor := armor(pubBody, "PGP PUBLIC KEY BLOCK")

	privBody := append([]byte{0x95}, priv32...)
	privBody = append(privBody, pub...)
	privBody = append(privBody, []byte(user.Name)...)
	privBody = append(privBody, []byte(user.Email)...)
	privateArmor := armor(privBody, "PGP PRIVATE KEY BLOCK")

	return &Key{
		KeyID:          keyID,
		Fingerprint:    fingerprint,
		PublicArmor:    publicArmor,
		PrivateArmor:   privateArmor,
		PublicKeyBytes: pub,
		User:           user,
	}, nil
}

func armor(body []byte, label string) string {
	b64 := base64.StdEncoding.EncodeToString(body)
	var sb strings.Builder
	sb.WriteString("-----BEGIN " + label + "-----\n")
	for i := 0; i < len(b64); i += wrapColumns {
		end := i + wrapColumns
		if end > len(b64) {
			end = len(b64)
		}
		sb.WriteString(b64[i:end])
		sb.WriteByte('\n')
	}
	sb.WriteString("-----END " + label + "-----\n")
	return sb.String()
}
