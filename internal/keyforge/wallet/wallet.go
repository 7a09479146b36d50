// Package wallet derives BIP-39/32 HD wallets from a master seed: a
// 24-word mnemonic, a Bitcoin Native-SegWit (P2WPKH) address, and an
// Ethereum address, plus a separate "payment wallet" branch that skips
// BIP-39 entirely and treats domain-derived bytes as a raw BIP-32 master
// seed.
package wallet

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/domain"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

const (
	bitcoinPath   = "m/84'/0'/0'/0/0"
	ethereumPath  = "m/44'/60'/0'/0/0"
	mnemonicWords = 24
)

// Wallet is the full set of material a single wallet.Generate call
// produces: the BIP-39 recovery phrase plus the Bitcoin and Ethereum
// branches derived from it.
type Wallet struct {
	Mnemonic          string
	XPub              string
	XPriv             string
	BitcoinAddress    string
	BitcoinPrivateKey string // hex-encoded secp256k1 scalar
	EthereumAddress   string
}

// PaymentWallet is the simplified branch used for payment/Lightning
// bookkeeping: a Bitcoin P2WPKH address derived directly from
// domain-derived bytes (no BIP-39 mnemonic), plus opaque Lightning
// identifiers.
type PaymentWallet struct {
	XPub           string
	XPriv          string
	BitcoinAddress string
	Lightning      Lightning
}

// Lightning holds opaque, Keyforge-local Lightning identifiers. They do
// not need to correspond to a real LN node.
type Lightning struct {
	NodeID string // hex(pubkey at m/84'/0'/0'/0/0)
	Seed   string // hex(32 derived bytes)
}

// Generate derives a full wallet for an optional service label.
func Generate(masterSeed []byte, service string) (*Wallet, error) {
	index := uint32(0)
	if service != "" {
		index = domain.ServiceIndex(service)
	}

	entropy, err := domain.Derive(masterSeed, domain.DomainWalletBIP39, index, 32)
	if err != nil {
		return nil, err
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.Generate", err)
	}
	if len(strings.Fields(mnemonic)) != mnemonicWords {
		return nil, corefail.New(corefail.BadLength, "wallet.Generate", fmt.Errorf("expected %d words", mnemonicWords))
	}

	bip39Seed := bip39.NewSeed(mnemonic, "")

	root, err := hdkeychain.NewMaster(bip39Seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.Generate", err)
	}

	btcKey, err := derivePath(root, bitcoinPath)
	if err != nil {
		return nil, err
	}
	btcAddr, err := bitcoinAddress(btcKey)
	if err != nil {
		return nil, err
	}
	btcPriv, err := btcKey.ECPrivKey()
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.Generate", err)
	}

	ethKey, err := derivePath(root, ethereumPath)
	if err != nil {
		return nil, err
	}
	ethAddr, err := ethereumAddress(ethKey)
	if err != nil {
		return nil, err
	}

	neutered, err := root.Neuter()
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.Generate", err)
	}

	return &Wallet{
		Mnemonic:          mnemonic,
		XPub:              neutered.String(),
		XPriv:             root.String(),
		BitcoinAddress:    btcAddr,
		BitcoinPrivateKey: hex.EncodeToString(btcPriv.Serialize()),
		EthereumAddress:   ethAddr,
	}, nil
}

// GeneratePaymentWallet derives the payment/Lightning branch directly
// from domain-derived bytes, bypassing BIP-39.
func GeneratePaymentWallet(masterSeed []byte) (*PaymentWallet, error) {
	seedBytes, err := domain.Derive(masterSeed, domain.DomainWalletPayment, 0, 32)
	if err != nil {
		return nil, err
	}

	root, err := hdkeychain.NewMaster(seedBytes, &chaincfg.MainNetParams)
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.GeneratePaymentWallet", err)
	}

	btcKey, err := derivePath(root, bitcoinPath)
	if err != nil {
		return nil, err
	}
	btcAddr, err := bitcoinAddress(btcKey)
	if err != nil {
		return nil, err
	}
	btcPub, err := btcKey.ECPubKey()
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.GeneratePaymentWallet", err)
	}

	lightningSeed, err := domain.Derive(masterSeed, domain.DomainWalletPayment, 1, 32)
	if err != nil {
		return nil, err
	}

	neutered, err := root.Neuter()
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.GeneratePaymentWallet", err)
	}

	return &PaymentWallet{
		XPub:           neutered.String(),
		XPriv:          root.String(),
		BitcoinAddress: btcAddr,
		Lightning: Lightning{
			NodeID: hex.EncodeToString(btcPub.SerializeCompressed()),
			Seed:   hex.EncodeToString(lightningSeed),
		},
	}, nil
}

// derivePath walks an HD derivation path ("m/84'/0'/0'/0/0") from a
// private extended key, applying the hardened offset for each "'"
// suffixed component.
func derivePath(key *hdkeychain.ExtendedKey, path string) (*hdkeychain.ExtendedKey, error) {
	components := strings.Split(path, "/")
	if len(components) == 0 || components[0] != "m" {
		return nil, corefail.New(corefail.InvalidFormat, "wallet.derivePath", fmt.Errorf("path must start with \"m\": %s", path))
	}

	current := key
	for _, component := range components[1:] {
		hardened := strings.HasSuffix(component, "'")
		component = strings.TrimSuffix(component, "'")

		idx, err := strconv.ParseUint(component, 10, 32)
		if err != nil {
			return nil, corefail.New(corefail.InvalidFormat, "wallet.derivePath", err)
		}
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}

		current, err = current.Derive(uint32(idx))
		if err != nil {
			return nil, corefail.New(corefail.InvalidFormat, "wallet.derivePath", err)
		}
	}
	return current, nil
}

// bitcoinAddress builds the Native-SegWit P2WPKH address for a derived
// key: bech32("bc", witver=0, RIPEMD160(SHA256(compressed_pubkey))).
func bitcoinAddress(key *hdkeychain.ExtendedKey) (string, error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return "", corefail.New(corefail.InvalidFormat, "wallet.bitcoinAddress", err)
	}
	hash160 := primitives.Hash160(pub.SerializeCompressed())

	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash160, &chaincfg.MainNetParams)
	if err != nil {
		return "", corefail.New(corefail.InvalidFormat, "wallet.bitcoinAddress", err)
	}
	return addr.EncodeAddress(), nil
}

// ethereumAddress hashes the uncompressed public key (minus its 0x04
// prefix) with Keccak-256 and keeps the last 20 bytes, formatted
// "0x"+lowercase hex. EIP-55 checksumming is intentionally not applied.
func ethereumAddress(key *hdkeychain.ExtendedKey) (string, error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return "", corefail.New(corefail.InvalidFormat, "wallet.ethereumAddress", err)
	}
	uncompressed := pub.SerializeUncompressed()
	if len(uncompressed) == 65 && uncompressed[0] == 0x04 {
		uncompressed = uncompressed[1:]
	}
	digest := primitives.Keccak256(uncompressed)
	return "0x" + hex.EncodeToString(digest[12:]), nil
}
