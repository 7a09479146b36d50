package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/keyforge/keyforge/internal/vaultstore"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x11}, 32)
}

func sampleVault() *vaultstore.Vault {
	now := time.Now().UTC()
	return &vaultstore.Vault{
		Version: vaultstore.VaultVersion,
		Created: now,
		Updated: now,
		Passwords: []vaultstore.Password{
			{ID: "1", Site: "github.com", Username: "alice", Password: "hunter2", Created: now, Modified: now},
		},
		Notes: []vaultstore.Note{},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	v := sampleVault()
	data, err := Export(v, FormatJSON, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, format, err := Import(data, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != FormatJSON {
		t.Fatalf("expected detected format %q, got %q", FormatJSON, format)
	}
	if len(got.Passwords) != 1 || got.Passwords[0].Site != "github.com" {
		t.Fatalf("round trip lost password records: %+v", got.Passwords)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	v := sampleVault()
	key := testKey()
	data, err := Export(v, FormatEncrypted, key)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, format, err := Import(data, key)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != FormatEncrypted {
		t.Fatalf("expected detected format %q, got %q", FormatEncrypted, format)
	}
	if len(got.Passwords) != 1 {
		t.Fatal("round trip lost password records")
	}
}

func TestBackupRoundTrip(t *testing.T) {
	v := sampleVault()
	key := testKey()
	data, err := Export(v, FormatBackup, key)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, format, err := Import(data, key)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != FormatBackup {
		t.Fatalf("expected detected format %q, got %q", FormatBackup, format)
	}
	if len(got.Passwords) != 1 {
		t.Fatal("round trip lost password records")
	}
}

func TestEncryptedImportWrongKeyFails(t *testing.T) {
	v := sampleVault()
	key := testKey()
	data, err := Export(v, FormatEncrypted, key)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	wrongKey := bytes.Repeat([]byte{0x22}, 32)
	if _, _, err := Import(data, wrongKey); err == nil {
		t.Fatal("expected import with the wrong key to fail")
	}
}

func TestImportDetectsFormatWithoutExplicitHint(t *testing.T) {
	v := sampleVault()
	data, err := Export(v, FormatJSON, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	// The json container has no top-level "format" field (it's nested
	// under exportInfo), so detection must fall back to json.
	_, format, err := Import(data, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != FormatJSON {
		t.Fatalf("expected fallback detection to json, got %q", format)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	v := sampleVault()
	if _, err := Export(v, Format("xml"), nil); err == nil {
		t.Fatal("expected error for unknown export format")
	}
}
