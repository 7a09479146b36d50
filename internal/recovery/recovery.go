// Package recovery is a thin orchestrator over the core derivation
// packages: given a passphrase and the identity it was opened under, it
// reconstructs a session and regenerates whichever key material the
// caller asks for. It holds no state of its own and does not persist
// anything — it exists to give the CLI's `recover` command a single
// call to make instead of wiring session/keykind/wallet/totp by hand.
package recovery

import (
	"log"

	"github.com/keyforge/keyforge/internal/keyforge/gpg"
	"github.com/keyforge/keyforge/internal/keyforge/keykind"
	"github.com/keyforge/keyforge/internal/keyforge/session"
	"github.com/keyforge/keyforge/internal/keyforge/ssh"
	"github.com/keyforge/keyforge/internal/keyforge/wallet"
)

// Bundle collects whichever key material was requested from
// RecoverFromPassphrase, keyed by kind.
type Bundle struct {
	SSH           map[string]*ssh.Key
	GPG           map[string]*gpg.Key
	Wallets       map[string]*wallet.Wallet
	PaymentWallet *wallet.PaymentWallet
	TOTPSecrets   map[string][]byte
}

func newBundle() *Bundle {
	return &Bundle{
		SSH:         make(map[string]*ssh.Key),
		GPG:         make(map[string]*gpg.Key),
		Wallets:     make(map[string]*wallet.Wallet),
		TOTPSecrets: make(map[string][]byte),
	}
}

// Request describes one piece of key material to regenerate: Kind plus
// the label identifying it within its Bundle map (a hostname, GPG
// service, or wallet/TOTP service name). PaymentWallet ignores Label.
type Request struct {
	Kind  keykind.Kind
	Label string

	GPGOptions gpg.Options
}

// RecoverFromPassphrase reconstructs a session for
// (passphrase, userLabel, version) and regenerates every kind of key
// material named in want, logging progress the way a multi-step
// recovery naturally would.
func RecoverFromPassphrase(passphrase, userLabel string, version uint, want []Request) (*Bundle, error) {
	log.Printf("recovery: opening session for user_label=%q version=%d", userLabel, version)
	s := session.Open(passphrase, userLabel, version)
	defer s.Close()

	bundle := newBundle()

	for _, req := range want {
		log.Printf("recovery: regenerating kind=%q label=%q", req.Kind, req.Label)

		result, err := s.Generate(keykind.Request{
			Kind:       req.Kind,
			Service:    req.Label,
			GPGOptions: req.GPGOptions,
		})
		if err != nil {
			return nil, err
		}

		switch req.Kind {
		case keykind.SSH:
			bundle.SSH[req.Label] = result.SSH
		case keykind.GPG:
			bundle.GPG[req.Label] = result.GPG
		case keykind.Bitcoin, keykind.Ethereum:
			bundle.Wallets[req.Label] = result.Wallet
		case keykind.PaymentWallet:
			bundle.PaymentWallet = result.PaymentWallet
		case keykind.TOTP:
			bundle.TOTPSecrets[req.Label] = result.TOTPSecret
		}
	}

	log.Printf("recovery: regenerated %d item(s)", len(want))
	return bundle, nil
}
