// Package session holds the live master seed for one unlocked identity
// and exposes every generator as a method on it. It exists so a caller
// never reaches for package-level state: two Sessions derived from
// different passphrases coexist safely, and closing one has no effect
// on the other.
package session

import (
	"fmt"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/domain"
	"github.com/keyforge/keyforge/internal/keyforge/gpg"
	"github.com/keyforge/keyforge/internal/keyforge/keykind"
	"github.com/keyforge/keyforge/internal/keyforge/masterkey"
	"github.com/keyforge/keyforge/internal/keyforge/ssh"
	"github.com/keyforge/keyforge/internal/keyforge/totp"
	"github.com/keyforge/keyforge/internal/keyforge/wallet"
)

const vaultKeyLen = 32

// Session is one unlocked identity: a master seed plus the label/version
// it was derived under. The zero value is not usable; construct with
// Open.
type Session struct {
	seed      masterkey.Seed
	userLabel string
	version   uint
	closed    bool
}

// Open derives a master seed from passphrase and returns a Session
// holding it. The passphrase itself is never retained.
func Open(passphrase, userLabel string, version uint) *Session {
	return &Session{
		seed:      masterkey.Derive(passphrase, userLabel, version),
		userLabel: userLabel,
		version:   version,
	}
}

// UserLabel returns the label this session was opened under.
func (s *Session) UserLabel() string { return s.userLabel }

// Version returns the version this session was opened under.
func (s *Session) Version() uint { return s.version }

// Close scrubs the master seed and marks the session unusable. Calling
// any other method afterward returns an InvalidFormat error.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.seed.Scrub()
	s.closed = true
}

func (s *Session) checkOpen(op string) error {
	if s.closed {
		return corefail.New(corefail.InvalidFormat, op, fmt.Errorf("session is closed"))
	}
	return nil
}

// Derive exposes raw domain-separated key material for callers that need
// a domain tag outside the generators below (e.g. Nostr or Shamir
// split tooling layered on top of this module).
func (s *Session) Derive(domainTag string, index uint32, length int) ([]byte, error) {
	if err := s.checkOpen("session.Derive"); err != nil {
		return nil, err
	}
	return domain.Derive(s.seed.Bytes(), domainTag, index, length)
}

// SSHKey derives the OpenSSH keypair for hostname.
func (s *Session) SSHKey(hostname string) (*ssh.Key, error) {
	if err := s.checkOpen("session.SSHKey"); err != nil {
		return nil, err
	}
	return ssh.Generate(s.seed.Bytes(), hostname)
}

// GPGKey derives the GPG-framed keypair for opts.
func (s *Session) GPGKey(opts gpg.Options) (*gpg.Key, error) {
	if err := s.checkOpen("session.GPGKey"); err != nil {
		return nil, err
	}
	return gpg.Generate(s.seed.Bytes(), opts)
}

// Wallet derives the BIP-39/BIP-32 wallet for service.
func (s *Session) Wallet(service string) (*wallet.Wallet, error) {
	if err := s.checkOpen("session.Wallet"); err != nil {
		return nil, err
	}
	return wallet.Generate(s.seed.Bytes(), service)
}

// PaymentWallet derives the BIP-39-bypassing payment/Lightning branch.
func (s *Session) PaymentWallet() (*wallet.PaymentWallet, error) {
	if err := s.checkOpen("session.PaymentWallet"); err != nil {
		return nil, err
	}
	return wallet.GeneratePaymentWallet(s.seed.Bytes())
}

// TOTPSecret derives the 20-byte TOTP secret for service.
func (s *Session) TOTPSecret(service string) ([]byte, error) {
	if err := s.checkOpen("session.TOTPSecret"); err != nil {
		return nil, err
	}
	return totp.DeriveSecret(s.seed.Bytes(), service)
}

// VaultKey derives the 32-byte key that encrypts this session's vault.
func (s *Session) VaultKey() ([]byte, error) {
	if err := s.checkOpen("session.VaultKey"); err != nil {
		return nil, err
	}
	return domain.Derive(s.seed.Bytes(), domain.DomainVaultEncrypt, 0, vaultKeyLen)
}

// Result is the discriminated-union return value of Generate: exactly
// one field is populated, matching Request.Kind.
type Result struct {
	Kind          keykind.Kind
	SSH           *ssh.Key
	GPG           *gpg.Key
	Wallet        *wallet.Wallet
	PaymentWallet *wallet.PaymentWallet
	TOTPSecret    []byte
}

// Generate dispatches req.Kind to the matching generator. The switch is
// exhaustive over keykind.Kind; a kind that reaches the default case is
// a programming error, not a runtime possibility, since Validate is
// expected to have already rejected it upstream.
func (s *Session) Generate(req keykind.Request) (*Result, error) {
	if err := keykind.Validate(req.Kind); err != nil {
		return nil, err
	}

	switch req.Kind {
	case keykind.SSH:
		key, err := s.SSHKey(req.Service)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, SSH: key}, nil

	case keykind.GPG:
		key, err := s.GPGKey(req.GPGOptions)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, GPG: key}, nil

	case keykind.Bitcoin, keykind.Ethereum:
		w, err := s.Wallet(req.Service)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, Wallet: w}, nil

	case keykind.PaymentWallet:
		w, err := s.PaymentWallet()
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, PaymentWallet: w}, nil

	case keykind.TOTP:
		secret, err := s.TOTPSecret(req.Service)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: req.Kind, TOTPSecret: secret}, nil

	default:
		panic(fmt.Sprintf("session.Generate: unhandled kind %q", req.Kind))
	}
}
