// Package export implements the three vault export container formats
// (json, encrypted, backup) and a format-detecting Import.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
	"github.com/keyforge/keyforge/internal/vaultstore"
)

// Format names one of the three export container shapes.
type Format string

const (
	FormatJSON      Format = "json"
	FormatEncrypted Format = "encrypted"
	FormatBackup    Format = "backup"

	containerVersion = "1.0.0"
)

type exportInfo struct {
	Version  string `json:"version"`
	Exported string `json:"exported"`
	Format   string `json:"format"`
}

type jsonContainer struct {
	ExportInfo exportInfo       `json:"exportInfo"`
	Vault      *vaultstore.Vault `json:"vault"`
}

type encryptedContainer struct {
	Version  string `json:"version"`
	Format   string `json:"format"`
	Exported string `json:"exported"`
	Nonce    string `json:"nonce"`
	Tag      string `json:"tag"`
	Data     string `json:"data"`
}

type backupPayload struct {
	Vault    *vaultstore.Vault `json:"vault"`
	Metadata backupMetadata    `json:"metadata"`
}

type backupMetadata struct {
	Exported string `json:"exported"`
}

type backupContainer struct {
	Format     string `json:"format"`
	Version    string `json:"version"`
	Exported   string `json:"exported"`
	Encryption string `json:"encryption"`
	Nonce      string `json:"nonce"`
	Tag        string `json:"tag"`
	Data       string `json:"data"`
}

// Export serializes vault into the requested container format. key is
// ignored for FormatJSON and required (32 bytes) for the other two.
func Export(vault *vaultstore.Vault, format Format, key []byte) ([]byte, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	switch format {
	case FormatJSON:
		return json.Marshal(jsonContainer{
			ExportInfo: exportInfo{Version: containerVersion, Exported: now, Format: string(FormatJSON)},
			Vault:      vault,
		})

	case FormatEncrypted:
		nonce, ct, tag, err := sealPayload(vault, key)
		if err != nil {
			return nil, err
		}
		return json.Marshal(encryptedContainer{
			Version:  containerVersion,
			Format:   string(FormatEncrypted),
			Exported: now,
			Nonce:    base64.StdEncoding.EncodeToString(nonce),
			Tag:      base64.StdEncoding.EncodeToString(tag),
			Data:     base64.StdEncoding.EncodeToString(ct),
		})

	case FormatBackup:
		payload := backupPayload{Vault: vault, Metadata: backupMetadata{Exported: now}}
		nonce, ct, tag, err := sealPayload(payload, key)
		if err != nil {
			return nil, err
		}
		return json.Marshal(backupContainer{
			Format:     "keyforge-backup",
			Version:    containerVersion,
			Exported:   now,
			Encryption: "ChaCha20-Poly1305",
			Nonce:      base64.StdEncoding.EncodeToString(nonce),
			Tag:        base64.StdEncoding.EncodeToString(tag),
			Data:       base64.StdEncoding.EncodeToString(ct),
		})

	default:
		return nil, corefail.New(corefail.InvalidFormat, "export.Export", fmt.Errorf("unknown format %q", format))
	}
}

// Import detects the container format from the top-level "format" field
// (absent means json) and returns the recovered vault plus the detected
// format name.
func Import(data, key []byte) (*vaultstore.Vault, Format, error) {
	var probe struct {
		Format string `json:"format"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, "", corefail.New(corefail.InvalidFormat, "export.Import", err)
	}

	switch Format(probe.Format) {
	case "", FormatJSON:
		var c jsonContainer
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, "", corefail.New(corefail.InvalidFormat, "export.Import", err)
		}
		return c.Vault, FormatJSON, nil

	case FormatEncrypted:
		var c encryptedContainer
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, "", corefail.New(corefail.InvalidFormat, "export.Import", err)
		}
		vault, err := openVault(c.Nonce, c.Tag, c.Data, key)
		if err != nil {
			return nil, "", err
		}
		return vault, FormatEncrypted, nil

	case "keyforge-backup":
		var c backupContainer
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, "", corefail.New(corefail.InvalidFormat, "export.Import", err)
		}
		var payload backupPayload
		if err := openInto(c.Nonce, c.Tag, c.Data, key, &payload); err != nil {
			return nil, "", err
		}
		return payload.Vault, FormatBackup, nil

	default:
		return nil, "", corefail.New(corefail.InvalidFormat, "export.Import", fmt.Errorf("unknown format %q", probe.Format))
	}
}

func sealPayload(v any, key []byte) (nonce, ct, tag []byte, err error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, nil, nil, corefail.New(corefail.InvalidFormat, "export.sealPayload", err)
	}
	nonce, err = primitives.Random(12)
	if err != nil {
		return nil, nil, nil, err
	}
	sealed, err := primitives.SealChaCha20Poly1305(key, nonce, plain)
	if err != nil {
		return nil, nil, nil, err
	}
	ct = sealed[:len(sealed)-16]
	tag = sealed[len(sealed)-16:]
	return nonce, ct, tag, nil
}

func openVault(nonceB64, tagB64, dataB64 string, key []byte) (*vaultstore.Vault, error) {
	var v vaultstore.Vault
	if err := openInto(nonceB64, tagB64, dataB64, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func openInto(nonceB64, tagB64, dataB64 string, key []byte, out any) error {
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return corefail.New(corefail.InvalidFormat, "export.openInto", err)
	}
	tag, err := base64.StdEncoding.DecodeString(tagB64)
	if err != nil {
		return corefail.New(corefail.InvalidFormat, "export.openInto", err)
	}
	ct, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return corefail.New(corefail.InvalidFormat, "export.openInto", err)
	}

	sealed := append(append([]byte{}, ct...), tag...)
	plain, err := primitives.OpenChaCha20Poly1305(key, nonce, sealed)
	if err != nil {
		return corefail.New(corefail.VaultCorrupt, "export.openInto", err)
	}
	if err := json.Unmarshal(plain, out); err != nil {
		return corefail.New(corefail.VaultCorrupt, "export.openInto", err)
	}
	return nil
}
