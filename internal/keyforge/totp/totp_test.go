package totp

import (
	"strings"
	"testing"
)

func zeroSeed() []byte {
	return make([]byte, 64)
}

func TestDeriveSecretDeterministic(t *testing.T) {
	seed := zeroSeed()
	a, err := DeriveSecret(seed, "github")
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	b, err := DeriveSecret(seed, "github")
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("DeriveSecret must be deterministic")
	}
	if len(a) != secretLen {
		t.Fatalf("expected %d-byte secret, got %d", secretLen, len(a))
	}
}

func TestDeriveSecretDiffersByService(t *testing.T) {
	seed := zeroSeed()
	a, _ := DeriveSecret(seed, "github")
	b, _ := DeriveSecret(seed, "gitlab")
	if string(a) == string(b) {
		t.Fatal("distinct services must produce distinct secrets")
	}
}

func TestCodeDefaultsAndShape(t *testing.T) {
	secret, err := DeriveSecret(zeroSeed(), "github")
	if err != nil {
		t.Fatalf("DeriveSecret: %v", err)
	}
	code, err := Code(secret, 59, Options{})
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit default code, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("code must be all digits, got %q", code)
		}
	}
}

func TestCodeRFC6238KnownVector(t *testing.T) {
	// RFC 6238 Appendix B, SHA1, 8-digit, 30s period, secret "12345678901234567890".
	secret := []byte("12345678901234567890")
	code, err := Code(secret, 59, Options{Algorithm: SHA1, Digits: 8, Period: 30})
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code != "94287082" {
		t.Fatalf("expected RFC 6238 test vector 94287082, got %s", code)
	}
}

func TestCodeRFC6238KnownVectorSHA256(t *testing.T) {
	secret := []byte("12345678901234567890123456789012")
	code, err := Code(secret, 59, Options{Algorithm: SHA256, Digits: 8, Period: 30})
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code != "46119246" {
		t.Fatalf("expected RFC 6238 test vector 46119246, got %s", code)
	}
}

func TestCodeStableWithinPeriod(t *testing.T) {
	secret, _ := DeriveSecret(zeroSeed(), "github")
	a, _ := Code(secret, 100, Options{})
	b, _ := Code(secret, 129, Options{})
	if a != b {
		t.Fatal("code must be stable within the same 30s period")
	}
	c, _ := Code(secret, 130, Options{})
	if a == c {
		t.Fatal("code must change across a period boundary")
	}
}

func TestCodeRejectsBadDigits(t *testing.T) {
	secret, _ := DeriveSecret(zeroSeed(), "github")
	if _, err := Code(secret, 0, Options{Digits: 7}); err == nil {
		t.Fatal("expected error for unsupported digit count")
	}
}

func TestDisplayInsertsMidpointSpace(t *testing.T) {
	if got := Display("123456"); got != "123 456" {
		t.Fatalf("expected \"123 456\", got %q", got)
	}
	if got := Display("12345678"); got != "1234 5678" {
		t.Fatalf("expected \"1234 5678\", got %q", got)
	}
}

func TestBase32EncodeRFC4648Vectors(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"f":      "MY======",
		"fo":     "MZXQ====",
		"foo":    "MZXW6===",
		"foob":   "MZXW6YQ=",
		"fooba":  "MZXW6YTB",
		"foobar": "MZXW6YTBOI======",
	}
	for input, want := range cases {
		if got := Base32Encode([]byte(input)); got != want {
			t.Errorf("Base32Encode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBase32EncodeAllUppercaseAlphabet(t *testing.T) {
	encoded := Base32Encode([]byte("keyforge"))
	if strings.ToUpper(encoded) != encoded {
		t.Fatal("base32 output must be uppercase")
	}
}
