package session

import (
	"testing"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/keykind"
)

func TestOpenDeterministic(t *testing.T) {
	a := Open("correct horse battery staple", "alice", 1)
	b := Open("correct horse battery staple", "alice", 1)
	defer a.Close()
	defer b.Close()

	keyA, err := a.SSHKey("github.com")
	if err != nil {
		t.Fatalf("SSHKey: %v", err)
	}
	keyB, err := b.SSHKey("github.com")
	if err != nil {
		t.Fatalf("SSHKey: %v", err)
	}
	if keyA.Fingerprint != keyB.Fingerprint {
		t.Fatal("two sessions opened with identical inputs must derive identical keys")
	}
}

func TestTwoSessionsAreIndependent(t *testing.T) {
	a := Open("passphrase-one", "alice", 1)
	b := Open("passphrase-two", "alice", 1)
	defer a.Close()
	defer b.Close()

	keyA, _ := a.SSHKey("github.com")
	keyB, _ := b.SSHKey("github.com")
	if keyA.Fingerprint == keyB.Fingerprint {
		t.Fatal("sessions opened with different passphrases must not collide")
	}

	// Closing one session must not affect the other's ability to derive.
	a.Close()
	if _, err := b.SSHKey("gitlab.com"); err != nil {
		t.Fatalf("closing one session must not affect another: %v", err)
	}
}

func TestCloseRejectsFurtherUse(t *testing.T) {
	s := Open("p", "alice", 1)
	s.Close()
	s.Close() // idempotent

	if _, err := s.SSHKey("github.com"); !corefail.Has(err, corefail.InvalidFormat) {
		t.Fatalf("expected InvalidFormat after Close, got %v", err)
	}
	if _, err := s.Derive("keyforge:ssh:v1", 0, 32); !corefail.Has(err, corefail.InvalidFormat) {
		t.Fatalf("expected InvalidFormat after Close, got %v", err)
	}
}

func TestGenerateDispatchesByKind(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	cases := []keykind.Request{
		{Kind: keykind.SSH, Service: "github.com"},
		{Kind: keykind.GPG},
		{Kind: keykind.Bitcoin, Service: "exchange"},
		{Kind: keykind.Ethereum, Service: "exchange"},
		{Kind: keykind.PaymentWallet},
		{Kind: keykind.TOTP, Service: "github"},
	}
	for _, req := range cases {
		result, err := s.Generate(req)
		if err != nil {
			t.Fatalf("Generate(%q): %v", req.Kind, err)
		}
		if result.Kind != req.Kind {
			t.Fatalf("Generate(%q) returned Kind %q", req.Kind, result.Kind)
		}
	}
}

func TestGenerateRejectsUnknownKind(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	_, err := s.Generate(keykind.Request{Kind: keykind.Kind("monero")})
	if !corefail.Has(err, corefail.InvalidFormat) {
		t.Fatalf("expected InvalidFormat, got %v", err)
	}
}

func TestVaultKeyDeterministicLength(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	key, err := s.VaultKey()
	if err != nil {
		t.Fatalf("VaultKey: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("expected 32-byte vault key, got %d", len(key))
	}
}
