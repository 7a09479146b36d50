// Package vaultcodec implements the on-disk envelope for an encrypted
// vault: canonical JSON, compressed with raw DEFLATE, sealed with
// ChaCha20-Poly1305, and framed with an explicit length-prefixed header.
// The layout is fixed and magic-free; a corrupt or foreign file is
// detected by decryption failure, not a format tag.
package vaultcodec

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"io"

	"github.com/keyforge/keyforge/internal/corefail"
	"github.com/keyforge/keyforge/internal/keyforge/primitives"
)

const (
	nonceLen = 12
	tagLen   = 16
)

// Encode compresses and seals v under key, producing the on-disk
// envelope:
//
//	byte 0       : nonce_len (always 12)
//	bytes 1..12  : nonce
//	byte 13      : tag_len (always 16)
//	bytes 14..29 : tag
//	bytes 30..   : ciphertext
//
// nonce, if non-nil, must be exactly 12 bytes and is used verbatim
// (tests rely on this for reproducible fixtures); otherwise 12 random
// bytes are generated.
func Encode(v any, key, nonce []byte) ([]byte, error) {
	plainJSON, err := json.Marshal(v)
	if err != nil {
		return nil, corefail.New(corefail.InvalidFormat, "vaultcodec.Encode", err)
	}

	compressed, err := deflate(plainJSON)
	if err != nil {
		return nil, corefail.New(corefail.Io, "vaultcodec.Encode", err)
	}

	if nonce == nil {
		nonce, err = primitives.Random(nonceLen)
		if err != nil {
			return nil, err
		}
	}
	if len(nonce) != nonceLen {
		return nil, corefail.New(corefail.BadLength, "vaultcodec.Encode", nil)
	}

	sealed, err := primitives.SealChaCha20Poly1305(key, nonce, compressed)
	if err != nil {
		return nil, err
	}
	if len(sealed) < tagLen {
		return nil, corefail.New(corefail.AeadFailure, "vaultcodec.Encode", nil)
	}
	ciphertext := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	out := make([]byte, 0, 1+nonceLen+1+tagLen+len(ciphertext))
	out = append(out, byte(nonceLen))
	out = append(out, nonce...)
	out = append(out, byte(tagLen))
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decode reverses Encode, unmarshaling the recovered plaintext JSON into
// out (a pointer). Any framing, AEAD, inflate, or JSON error is reported
// as a single VaultCorrupt error — callers cannot distinguish "wrong
// key" from "truncated file" from "not a keyforge vault at all".
func Decode(envelope, key []byte, out any) error {
	if len(envelope) < 2+nonceLen+tagLen {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", nil)
	}
	if envelope[0] != nonceLen {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", nil)
	}
	nonce := envelope[1 : 1+nonceLen]

	tagLenOffset := 1 + nonceLen
	if envelope[tagLenOffset] != tagLen {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", nil)
	}
	tag := envelope[tagLenOffset+1 : tagLenOffset+1+tagLen]
	ciphertext := envelope[tagLenOffset+1+tagLen:]

	sealed := append(append([]byte{}, ciphertext...), tag...)
	compressed, err := primitives.OpenChaCha20Poly1305(key, nonce, sealed)
	if err != nil {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", err)
	}

	plainJSON, err := inflate(compressed)
	if err != nil {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", err)
	}

	if err := json.Unmarshal(plainJSON, out); err != nil {
		return corefail.New(corefail.VaultCorrupt, "vaultcodec.Decode", err)
	}
	return nil
}

// deflate compresses data with raw DEFLATE (no zlib wrapper) at the
// default compression level.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// inflate decompresses a raw DEFLATE stream produced by deflate.
func inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}
