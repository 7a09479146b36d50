// Package vaultstore holds one Vault in memory, persists it through
// vaultcodec, and enforces the record-level invariants (unique
// password sites, password history on change, checksum freshness).
package vaultstore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyforge/keyforge/internal/blobstore"
	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
	"github.com/keyforge/keyforge/internal/vaultcodec"
)

const tmpSuffix = ".tmp"

// Store holds one Vault backed by a file at Path, encrypted under Key.
// mu is the per-vault critical section: every method that reads or
// mutates vault, or that persists it, holds mu for its duration, so
// concurrent add/update/delete/save calls from multiple goroutines
// cannot race on the underlying slices or interleave partial writes.
type Store struct {
	Path string
	Key  []byte

	mu    sync.Mutex
	vault *Vault
}

// Open constructs a Store for path under key. It always initializes an
// empty vault first, then attempts Load; any load failure (missing
// file, corrupt envelope) is swallowed and the empty vault is kept —
// first-run ergonomics, per the load-failure policy documented on
// Load.
func Open(path string, key []byte) *Store {
	now := time.Now().UTC()
	s := &Store{Path: path, Key: key, vault: newEmptyVault(now)}
	_ = s.Load()
	return s
}

// Vault returns the live vault. Callers must not mutate it directly;
// use the CRUD methods below so invariants and persistence stay in
// sync.
func (s *Store) Vault() *Vault {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vault
}

// touchLocked stamps Updated and persists. Callers must already hold mu.
func (s *Store) touchLocked() error {
	s.vault.Updated = time.Now().UTC()
	return s.saveLocked()
}

// --- Passwords ---------------------------------------------------------

// AddPassword inserts a new password record. Site must be unique
// within the vault.
func (s *Store) AddPassword(site, username, password, notes string, tags []string) (*Password, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.vault.Passwords {
		if p.Site == site {
			return nil, corefail.New(corefail.AlreadyExists, "vaultstore.AddPassword", fmt.Errorf("site %q already exists", site))
		}
	}
	now := time.Now().UTC()
	p := Password{
		ID:       uuid.NewString(),
		Site:     site,
		Username: username,
		Password: password,
		Notes:    notes,
		Tags:     tags,
		Created:  now,
		Modified: now,
	}
	s.vault.Passwords = append(s.vault.Passwords, p)
	if err := s.touchLocked(); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPassword looks up a password by site.
func (s *Store) GetPassword(site string) (*Password, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Passwords {
		if s.vault.Passwords[i].Site == site {
			p := s.vault.Passwords[i]
			return &p, nil
		}
	}
	return nil, corefail.New(corefail.NotFound, "vaultstore.GetPassword", fmt.Errorf("site %q not found", site))
}

// ListPasswords returns every password record.
func (s *Store) ListPasswords() []Password {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Password{}, s.vault.Passwords...)
}

// UpdatePassword applies patch to the record at site. If patch changes
// Password, the prior value is prepended to History.
func (s *Store) UpdatePassword(site string, patch PasswordPatch) (*Password, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Passwords {
		if s.vault.Passwords[i].Site != site {
			continue
		}
		p := &s.vault.Passwords[i]
		if patch.Username != nil {
			p.Username = *patch.Username
		}
		if patch.Password != nil && *patch.Password != p.Password {
			p.History = append([]PasswordHistoryEntry{{Password: p.Password, Changed: time.Now().UTC()}}, p.History...)
			p.Password = *patch.Password
		}
		if patch.Notes != nil {
			p.Notes = *patch.Notes
		}
		if patch.Tags != nil {
			p.Tags = patch.Tags
		}
		p.Modified = time.Now().UTC()
		if err := s.touchLocked(); err != nil {
			return nil, err
		}
		out := *p
		return &out, nil
	}
	return nil, corefail.New(corefail.NotFound, "vaultstore.UpdatePassword", fmt.Errorf("site %q not found", site))
}

// DeletePassword removes the record at site.
func (s *Store) DeletePassword(site string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Passwords {
		if s.vault.Passwords[i].Site != site {
			continue
		}
		s.vault.Passwords = append(s.vault.Passwords[:i], s.vault.Passwords[i+1:]...)
		return s.touchLocked()
	}
	return corefail.New(corefail.NotFound, "vaultstore.DeletePassword", fmt.Errorf("site %q not found", site))
}

// SearchPasswords returns every password matching the non-zero fields
// of filter; an empty filter matches everything.
func (s *Store) SearchPasswords(filter PasswordFilter) []Password {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Password
	for _, p := range s.vault.Passwords {
		if filter.Site != "" && p.Site != filter.Site {
			continue
		}
		if filter.Username != "" && p.Username != filter.Username {
			continue
		}
		if len(filter.Tags) > 0 && !containsAll(p.Tags, filter.Tags) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// --- Notes ---------------------------------------------------------

// AddNote inserts a new note record.
func (s *Store) AddNote(title, content string, attachments []Attachment) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	n := Note{
		ID:          uuid.NewString(),
		Title:       title,
		Content:     content,
		Attachments: attachments,
		Created:     now,
		Modified:    now,
	}
	s.vault.Notes = append(s.vault.Notes, n)
	if err := s.touchLocked(); err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNote looks up a note by id.
func (s *Store) GetNote(id string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Notes {
		if s.vault.Notes[i].ID == id {
			n := s.vault.Notes[i]
			return &n, nil
		}
	}
	return nil, corefail.New(corefail.NotFound, "vaultstore.GetNote", fmt.Errorf("note %q not found", id))
}

// ListNotes returns every note record.
func (s *Store) ListNotes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note{}, s.vault.Notes...)
}

// UpdateNote applies patch to the note at id.
func (s *Store) UpdateNote(id string, patch NotePatch) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Notes {
		if s.vault.Notes[i].ID != id {
			continue
		}
		n := &s.vault.Notes[i]
		if patch.Title != nil {
			n.Title = *patch.Title
		}
		if patch.Content != nil {
			n.Content = *patch.Content
		}
		n.Modified = time.Now().UTC()
		if err := s.touchLocked(); err != nil {
			return nil, err
		}
		out := *n
		return &out, nil
	}
	return nil, corefail.New(corefail.NotFound, "vaultstore.UpdateNote", fmt.Errorf("note %q not found", id))
}

// DeleteNote removes the note at id.
func (s *Store) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.vault.Notes {
		if s.vault.Notes[i].ID != id {
			continue
		}
		s.vault.Notes = append(s.vault.Notes[:i], s.vault.Notes[i+1:]...)
		return s.touchLocked()
	}
	return corefail.New(corefail.NotFound, "vaultstore.DeleteNote", fmt.Errorf("note %q not found", id))
}

// --- Service config --------------------------------------------------

// AddSSH records public metadata for a derived SSH key.
func (s *Store) AddSSH(entry SSHEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Created = time.Now().UTC()
	s.vault.Config.SSH = append(s.vault.Config.SSH, entry)
	return s.touchLocked()
}

// AddGPG records public metadata for a derived GPG key.
func (s *Store) AddGPG(entry GPGEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Created = time.Now().UTC()
	s.vault.Config.GPG = append(s.vault.Config.GPG, entry)
	return s.touchLocked()
}

// AddWallet records public metadata for a derived wallet.
func (s *Store) AddWallet(entry WalletEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Created = time.Now().UTC()
	s.vault.Config.Wallets = append(s.vault.Config.Wallets, entry)
	return s.touchLocked()
}

// AddTOTP records a derived TOTP secret (base64) and its parameters.
func (s *Store) AddTOTP(entry TOTPEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Created = time.Now().UTC()
	s.vault.Config.TOTP = append(s.vault.Config.TOTP, entry)
	return s.touchLocked()
}

// ListSSH, ListGPG, ListWallets, ListTOTP return the recorded metadata.
func (s *Store) ListSSH() []SSHEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SSHEntry{}, s.vault.Config.SSH...)
}

func (s *Store) ListGPG() []GPGEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GPGEntry{}, s.vault.Config.GPG...)
}

func (s *Store) ListWallets() []WalletEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WalletEntry{}, s.vault.Config.Wallets...)
}

func (s *Store) ListTOTP() []TOTPEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TOTPEntry{}, s.vault.Config.TOTP...)
}

// --- Persistence -------------------------------------------------------

// CalculateChecksum computes SHA-256(canonical-JSON(vault with
// checksum="")) hex, without mutating the store's own metadata.
func (s *Store) CalculateChecksum() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calculateChecksumLocked()
}

func (s *Store) calculateChecksumLocked() (string, error) {
	clone := *s.vault
	clone.Metadata.Checksum = ""
	encoded, err := json.Marshal(clone)
	if err != nil {
		return "", corefail.New(corefail.InvalidFormat, "vaultstore.CalculateChecksum", err)
	}
	sum := primitives.SHA256(encoded)
	return hex.EncodeToString(sum), nil
}

// ValidateIntegrity reports whether the stored checksum matches the
// vault's current content.
func (s *Store) ValidateIntegrity() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want, err := s.calculateChecksumLocked()
	if err != nil {
		return false, err
	}
	return want == s.vault.Metadata.Checksum, nil
}

// Save recomputes the checksum, encodes the vault via vaultcodec, and
// writes it atomically (write to a .tmp sibling, then rename).
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// saveLocked is Save's body. Callers must already hold mu.
func (s *Store) saveLocked() error {
	sum, err := s.calculateChecksumLocked()
	if err != nil {
		return err
	}
	s.vault.Metadata.Checksum = sum

	envelope, err := vaultcodec.Encode(s.vault, s.Key, nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return corefail.New(corefail.Io, "vaultstore.Save", err)
	}

	tmpPath := s.Path + tmpSuffix
	if err := os.WriteFile(tmpPath, envelope, 0o600); err != nil {
		return corefail.New(corefail.Io, "vaultstore.Save", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return corefail.New(corefail.Io, "vaultstore.Save", err)
	}
	return nil
}

// Load reads and decodes the vault at Path. Any failure (missing file,
// AEAD failure, inflate/JSON failure) resets the store to an empty
// vault and is reported so callers that need to distinguish "fresh
// vault" from "load error" still can; Open itself discards this error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		s.vault = newEmptyVault(time.Now().UTC())
		return corefail.New(corefail.Io, "vaultstore.Load", err)
	}

	var v Vault
	if err := vaultcodec.Decode(data, s.Key, &v); err != nil {
		s.vault = newEmptyVault(time.Now().UTC())
		return err
	}
	s.vault = &v
	return nil
}

// Clear replaces the vault with a fresh empty one and persists it.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vault = newEmptyVault(time.Now().UTC())
	return s.saveLocked()
}

// Sync stamps Updated, persists locally, and — if store is non-nil —
// pushes the resulting envelope to a BlobStore. A BlobStore failure is
// reported but never undoes the local save, matching the sync failure
// policy: remote backup is best-effort, local durability is not.
func (s *Store) Sync(store blobstore.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.touchLocked(); err != nil {
		return err
	}
	if store == nil {
		return nil
	}

	envelope, err := vaultcodec.Encode(s.vault, s.Key, nil)
	if err != nil {
		return err
	}
	handle, err := store.Put(envelope)
	if err != nil {
		return err
	}
	s.vault.Metadata.Backups.Local = handle
	return s.saveLocked()
}
