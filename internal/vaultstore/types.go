package vaultstore

import "time"

// VaultVersion is the only vault format version this package writes or
// accepts.
const VaultVersion = 1

// PasswordHistoryEntry records a previous password value and when it
// stopped being current.
type PasswordHistoryEntry struct {
	Password string    `json:"password"`
	Changed  time.Time `json:"changed"`
}

// Password is a single credential record. Site is the record's unique
// key within a Vault.
type Password struct {
	ID       string                 `json:"id"`
	Site     string                 `json:"site"`
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Notes    string                 `json:"notes,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Created  time.Time              `json:"created"`
	Modified time.Time              `json:"modified"`
	History  []PasswordHistoryEntry `json:"history,omitempty"`
}

// Attachment is a named blob carried inside a Note.
type Attachment struct {
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int    `json:"size"`
	Data string `json:"data,omitempty"` // base64, optional
}

// Note is a free-form text record with optional attachments.
type Note struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Created     time.Time    `json:"created"`
	Modified    time.Time    `json:"modified"`
}

// SSHEntry is public metadata for a derived SSH key; the private key
// itself is re-derived on demand and never stored.
type SSHEntry struct {
	Hostname    string    `json:"hostname"`
	PublicLine  string    `json:"publicLine"`
	Fingerprint string    `json:"fingerprint"`
	Created     time.Time `json:"created"`
}

// GPGEntry is public metadata for a derived GPG-framed key.
type GPGEntry struct {
	Service     string    `json:"service"`
	KeyID       string    `json:"keyId"`
	Fingerprint string    `json:"fingerprint"`
	Created     time.Time `json:"created"`
}

// WalletEntry is public metadata for a derived wallet; mnemonics and
// private keys are re-derived on demand and never stored.
type WalletEntry struct {
	Service         string    `json:"service"`
	BitcoinAddress  string    `json:"bitcoinAddress"`
	EthereumAddress string    `json:"ethereumAddress"`
	Created         time.Time `json:"created"`
}

// TOTPEntry carries the base64-encoded derived secret. Storing the
// secret itself (rather than only metadata) is acceptable because the
// vault as a whole is encrypted at rest.
type TOTPEntry struct {
	Service   string    `json:"service"`
	SecretB64 string    `json:"secretB64"`
	Digits    int       `json:"digits"`
	Period    int64     `json:"period"`
	Created   time.Time `json:"created"`
}

// ServiceConfig groups the public generator metadata records.
type ServiceConfig struct {
	SSH     []SSHEntry    `json:"ssh,omitempty"`
	GPG     []GPGEntry    `json:"gpg,omitempty"`
	Wallets []WalletEntry `json:"wallets,omitempty"`
	TOTP    []TOTPEntry   `json:"totp,omitempty"`
}

// Backups records where a vault envelope has last been pushed.
type Backups struct {
	Arweave string   `json:"arweave,omitempty"`
	Nostr   []string `json:"nostr,omitempty"`
	IPFS    string   `json:"ipfs,omitempty"`
	Local   string   `json:"local,omitempty"`
}

// Metadata carries the checksum invariant and backup pointers.
type Metadata struct {
	Checksum string  `json:"checksum"`
	Backups  Backups `json:"backups"`
}

// Vault is the full in-memory record set persisted by Save/Load.
type Vault struct {
	Version   int           `json:"version"`
	Created   time.Time     `json:"created"`
	Updated   time.Time     `json:"updated"`
	Config    ServiceConfig `json:"config"`
	Passwords []Password    `json:"passwords"`
	Notes     []Note        `json:"notes"`
	Metadata  Metadata      `json:"metadata"`
}

func newEmptyVault(now time.Time) *Vault {
	return &Vault{
		Version:   VaultVersion,
		Created:   now,
		Updated:   now,
		Passwords: []Password{},
		Notes:     []Note{},
	}
}

// PasswordPatch carries the subset of Password fields an Update call may
// change; nil fields are left untouched.
type PasswordPatch struct {
	Username *string
	Password *string
	Notes    *string
	Tags     []string
}

// NotePatch carries the subset of Note fields an Update call may
// change; nil fields are left untouched.
type NotePatch struct {
	Title   *string
	Content *string
}

// PasswordFilter selects a subset of passwords for Search.
type PasswordFilter struct {
	Site     string
	Username string
	Tags     []string
}
