package wallet

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

func zeroSeed() []byte {
	return make([]byte, 64)
}

func TestGenerateDeterministic(t *testing.T) {
	seed := zeroSeed()
	a, err := Generate(seed, "exchange")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(seed, "exchange")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Mnemonic != b.Mnemonic || a.BitcoinAddress != b.BitcoinAddress || a.EthereumAddress != b.EthereumAddress {
		t.Fatal("Generate must be deterministic for identical inputs")
	}
}

func TestGenerateShape(t *testing.T) {
	seed := zeroSeed()
	w, err := Generate(seed, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if words := len(strings.Fields(w.Mnemonic)); words != mnemonicWords {
		t.Fatalf("expected %d mnemonic words, got %d", mnemonicWords, words)
	}
	if !strings.HasPrefix(w.BitcoinAddress, "bc1") {
		t.Fatalf("expected native segwit address, got %q", w.BitcoinAddress)
	}
	if !strings.HasPrefix(w.EthereumAddress, "0x") || len(w.EthereumAddress) != 42 {
		t.Fatalf("expected 0x-prefixed 20-byte ethereum address, got %q", w.EthereumAddress)
	}
	if !strings.HasPrefix(w.XPub, "xpub") {
		t.Fatalf("expected mainnet xpub prefix, got %q", w.XPub)
	}
	if !strings.HasPrefix(w.XPriv, "xprv") {
		t.Fatalf("expected mainnet xprv prefix, got %q", w.XPriv)
	}
}

func TestGenerateDiffersByService(t *testing.T) {
	seed := zeroSeed()
	a, err := Generate(seed, "exchange")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(seed, "cold-storage")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.Mnemonic == b.Mnemonic {
		t.Fatal("distinct services must produce distinct mnemonics")
	}
	if a.BitcoinAddress == b.BitcoinAddress {
		t.Fatal("distinct services must produce distinct bitcoin addresses")
	}
}

func TestGeneratePaymentWalletDeterministic(t *testing.T) {
	seed := zeroSeed()
	a, err := GeneratePaymentWallet(seed)
	if err != nil {
		t.Fatalf("GeneratePaymentWallet: %v", err)
	}
	b, err := GeneratePaymentWallet(seed)
	if err != nil {
		t.Fatalf("GeneratePaymentWallet: %v", err)
	}
	if a.BitcoinAddress != b.BitcoinAddress || a.Lightning.NodeID != b.Lightning.NodeID || a.Lightning.Seed != b.Lightning.Seed {
		t.Fatal("GeneratePaymentWallet must be deterministic")
	}
}

func TestGeneratePaymentWalletIndependentOfBIP39Branch(t *testing.T) {
	seed := zeroSeed()
	full, err := Generate(seed, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	payment, err := GeneratePaymentWallet(seed)
	if err != nil {
		t.Fatalf("GeneratePaymentWallet: %v", err)
	}
	if full.BitcoinAddress == payment.BitcoinAddress {
		t.Fatal("payment wallet must not collide with the BIP-39 branch")
	}
}

func TestGeneratePaymentWalletLightningFields(t *testing.T) {
	seed := zeroSeed()
	w, err := GeneratePaymentWallet(seed)
	if err != nil {
		t.Fatalf("GeneratePaymentWallet: %v", err)
	}
	if len(w.Lightning.NodeID) != 66 { // 33-byte compressed pubkey, hex-encoded
		t.Fatalf("expected 66 hex chars for compressed pubkey node id, got %d", len(w.Lightning.NodeID))
	}
	if len(w.Lightning.Seed) != 64 { // 32 bytes, hex-encoded
		t.Fatalf("expected 64 hex chars for lightning seed, got %d", len(w.Lightning.Seed))
	}
}

func TestDerivePathRejectsMalformedPath(t *testing.T) {
	root, err := hdkeychain.NewMaster(zeroSeed(), &chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("hdkeychain.NewMaster: %v", err)
	}
	if _, err := derivePath(root, "84'/0'/0'/0/0"); err == nil {
		t.Fatal("expected error for path missing leading \"m\"")
	}
	if _, err := derivePath(root, "m/notanumber"); err == nil {
		t.Fatal("expected error for non-numeric path component")
	}
}
