package client

import (
	"path/filepath"
	"testing"

	"github.com/keyforge/keyforge/internal/keyforge/keykind"
)

func TestSessionSSHKeyDeterministic(t *testing.T) {
	a := Open("correct horse battery staple", "alice", 1)
	defer a.Close()
	b := Open("correct horse battery staple", "alice", 1)
	defer b.Close()

	ka, err := a.SSHKey("github.com")
	if err != nil {
		t.Fatalf("SSHKey: %v", err)
	}
	kb, err := b.SSHKey("github.com")
	if err != nil {
		t.Fatalf("SSHKey: %v", err)
	}
	if ka.Fingerprint != kb.Fingerprint {
		t.Fatal("expected identical inputs to produce identical fingerprints")
	}
}

func TestSessionCloseRejectsFurtherUse(t *testing.T) {
	s := Open("p", "alice", 1)
	s.Close()
	if _, err := s.SSHKey("github.com"); err == nil {
		t.Fatal("expected error after Close")
	}
}

func TestSessionWalletAndPaymentWalletDiffer(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	w, err := s.Wallet("exchange")
	if err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	pw, err := s.PaymentWallet()
	if err != nil {
		t.Fatalf("PaymentWallet: %v", err)
	}
	if w.BitcoinAddress == pw.BitcoinAddress {
		t.Fatal("expected wallet and payment wallet to derive different addresses")
	}
}

func TestSessionCode(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	code, err := s.Code("github", 59, 8, 30)
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("expected an 8-digit code, got %q", code)
	}
}

func TestSessionGenerateDispatchesByKind(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	result, err := s.Generate(keykind.Request{Kind: keykind.Bitcoin, Service: "exchange"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Wallet == nil {
		t.Fatal("expected a populated Wallet field")
	}
}

func TestVaultStoreSaveLoadRoundTrip(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "vault.enc")
	vs, err := s.OpenVault(path)
	if err != nil {
		t.Fatalf("OpenVault: %v", err)
	}
	if err := vs.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := s.OpenVault(path)
	if err != nil {
		t.Fatalf("OpenVault (reopen): %v", err)
	}
	ok, err := reopened.ValidateIntegrity()
	if err != nil {
		t.Fatalf("ValidateIntegrity: %v", err)
	}
	if !ok {
		t.Fatal("expected reopened vault to pass integrity validation")
	}
}

func TestVaultStoreExportImportRoundTrip(t *testing.T) {
	s := Open("p", "alice", 1)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "vault.enc")
	vs, err := s.OpenVault(path)
	if err != nil {
		t.Fatalf("OpenVault: %v", err)
	}

	data, err := vs.Export(ExportJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	format, err := vs.Import(data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != ExportJSON {
		t.Fatalf("expected detected format %q, got %q", ExportJSON, format)
	}
}
