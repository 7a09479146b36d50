// Package keykind names the family of derivable key material and carries
// the per-kind options a generation request needs. It replaces routing
// a free-standing string through a chain of if/else checks with a single
// exhaustive switch at the call site.
package keykind

import (
	"fmt"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/gpg"
)

// Kind names a family of derivable key material.
type Kind string

const (
	SSH           Kind = "ssh"
	GPG           Kind = "gpg"
	Bitcoin       Kind = "bitcoin"
	Ethereum      Kind = "ethereum"
	PaymentWallet Kind = "payment-wallet"
	TOTP          Kind = "totp"
)

// Request carries a Kind plus whichever of its fields the requested kind
// actually reads. Unused fields for a given Kind are ignored.
type Request struct {
	Kind Kind

	// SSH, Bitcoin, Ethereum, TOTP
	Service string

	// GPG
	GPGOptions gpg.Options

	// TOTP
	TOTPDigits int
	TOTPPeriod int64
}

// Validate reports whether k is one of the known kinds.
func Validate(k Kind) error {
	switch k {
	case SSH, GPG, Bitcoin, Ethereum, PaymentWallet, TOTP:
		return nil
	default:
		return corefail.New(corefail.InvalidFormat, "keykind.Validate", fmt.Errorf("unknown key kind %q", k))
	}
}
