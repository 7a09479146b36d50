// Package client provides a public API for keyforge functionality.
// This package is intended for consumption by other Go applications
// that want to derive or manage keyforge key material without
// shelling out to the CLI.
package client

import (
	"github.com/keyforge/keyforge/internal/export"
	"github.com/keyforge/keyforge/internal/keyforge/gpg"
	"github.com/keyforge/keyforge/internal/keyforge/keykind"
	"github.com/keyforge/keyforge/internal/keyforge/session"
	"github.com/keyforge/keyforge/internal/keyforge/ssh"
	"github.com/keyforge/keyforge/internal/keyforge/totp"
	"github.com/keyforge/keyforge/internal/keyforge/wallet"
	"github.com/keyforge/keyforge/internal/vaultstore"
)

// SSHKey mirrors ssh.Key for external callers.
type SSHKey = ssh.Key

// GPGKey mirrors gpg.Key for external callers.
type GPGKey = gpg.Key

// GPGOptions mirrors gpg.Options for external callers.
type GPGOptions = gpg.Options

// Wallet mirrors wallet.Wallet for external callers.
type Wallet = wallet.Wallet

// PaymentWallet mirrors wallet.PaymentWallet for external callers.
type PaymentWallet = wallet.PaymentWallet

// Vault mirrors vaultstore.Vault for external callers.
type Vault = vaultstore.Vault

// ExportFormat mirrors export.Format for external callers.
type ExportFormat = export.Format

const (
	ExportJSON      = export.FormatJSON
	ExportEncrypted = export.FormatEncrypted
	ExportBackup    = export.FormatBackup
)

// Session wraps a keyforge derivation session, opened from a passphrase
// and an identity (userLabel, version). Callers must call Close when
// done so the underlying master seed is scrubbed from memory.
type Session struct {
	s *session.Session
}

// Open derives a master seed from passphrase and opens a Session bound
// to (userLabel, version). The same inputs always yield the same key
// material.
func Open(passphrase, userLabel string, version uint) *Session {
	return &Session{s: session.Open(passphrase, userLabel, version)}
}

// Close scrubs the session's master seed. Safe to call more than once.
func (c *Session) Close() {
	c.s.Close()
}

// SSHKey derives the SSH keypair for hostname.
func (c *Session) SSHKey(hostname string) (*SSHKey, error) {
	return c.s.SSHKey(hostname)
}

// GPGKey derives a GPG-framed keypair.
func (c *Session) GPGKey(opts GPGOptions) (*GPGKey, error) {
	return c.s.GPGKey(opts)
}

// Wallet derives a BIP-39/BIP-32 wallet (Bitcoin + Ethereum addresses)
// scoped to service.
func (c *Session) Wallet(service string) (*Wallet, error) {
	return c.s.Wallet(service)
}

// PaymentWallet derives the identity-wide payment wallet, bypassing
// BIP-39 mnemonic generation.
func (c *Session) PaymentWallet() (*PaymentWallet, error) {
	return c.s.PaymentWallet()
}

// TOTPSecret derives the raw TOTP secret for service. Use
// github.com/keyforge/keyforge/internal/keyforge/totp to turn it into a
// code, or the Code helper below.
func (c *Session) TOTPSecret(service string) ([]byte, error) {
	return c.s.TOTPSecret(service)
}

// Code derives the TOTP code for service at the given unix time.
func (c *Session) Code(service string, at int64, digits int, period int64) (string, error) {
	secret, err := c.s.TOTPSecret(service)
	if err != nil {
		return "", err
	}
	return totp.Code(secret, at, totp.Options{Digits: digits, Period: period})
}

// VaultKey derives the 32-byte symmetric key used to seal this
// identity's local vault.
func (c *Session) VaultKey() ([]byte, error) {
	return c.s.VaultKey()
}

// Generate dispatches on req.Kind exactly like the CLI's subcommands do.
func (c *Session) Generate(req keykind.Request) (*session.Result, error) {
	return c.s.Generate(req)
}

// OpenVault opens (and, if absent, creates) the encrypted vault at path
// for this session's identity.
func (c *Session) OpenVault(path string) (*VaultStore, error) {
	key, err := c.s.VaultKey()
	if err != nil {
		return nil, err
	}
	return &VaultStore{s: vaultstore.Open(path, key), key: key}, nil
}

// VaultStore is a thin wrapper over vaultstore.Store for external callers.
type VaultStore struct {
	s   *vaultstore.Store
	key []byte
}

// Vault returns the in-memory vault. Mutating it does not persist the
// change; call Save.
func (v *VaultStore) Vault() *Vault {
	return v.s.Vault()
}

// Save writes the vault to disk.
func (v *VaultStore) Save() error {
	return v.s.Save()
}

// ValidateIntegrity recomputes the vault's checksum and compares it
// against the stored one.
func (v *VaultStore) ValidateIntegrity() (bool, error) {
	return v.s.ValidateIntegrity()
}

// Export serializes the vault into one of the three container formats.
func (v *VaultStore) Export(format ExportFormat) ([]byte, error) {
	return export.Export(v.s.Vault(), format, v.key)
}

// Import replaces the vault's contents with data, detecting format
// automatically, and persists the result.
func (v *VaultStore) Import(data []byte) (ExportFormat, error) {
	vault, format, err := export.Import(data, v.key)
	if err != nil {
		return "", err
	}
	*v.s.Vault() = *vault
	return format, v.s.Save()
}
