package blobstore

import (
	"bytes"
	"testing"
)

func TestMemoryPutGetRoundTrip(t *testing.T) {
	m := NewMemory(1000)
	handle, err := m.Put([]byte("envelope-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("envelope-bytes")) {
		t.Fatalf("Get returned %q, want %q", got, "envelope-bytes")
	}
}

func TestMemoryLatestTracksMostRecentPut(t *testing.T) {
	m := NewMemory(1000)
	if _, ok := m.Latest(); ok {
		t.Fatal("Latest on empty store must report ok=false")
	}
	first, _ := m.Put([]byte("one"))
	second, _ := m.Put([]byte("two"))

	latest, ok := m.Latest()
	if !ok || latest != second {
		t.Fatalf("Latest() = (%q, %v), want (%q, true)", latest, ok, second)
	}
	if latest == first {
		t.Fatal("Latest must not return the first handle after a second Put")
	}
}

func TestMemoryGetUnknownHandleIsNotFound(t *testing.T) {
	m := NewMemory(1000)
	if _, err := m.Get("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown handle")
	}
}

func TestMemoryGetComposedWithLatestReturnsMostRecentPut(t *testing.T) {
	m := NewMemory(1000)
	m.Put([]byte("stale"))
	want := []byte("fresh-envelope")
	m.Put(want)

	handle, ok := m.Latest()
	if !ok {
		t.Fatal("expected Latest to report a handle")
	}
	got, err := m.Get(handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Get(Latest()) = %q, want %q", got, want)
	}
}

func TestMemoryQuoteSizesByByteCount(t *testing.T) {
	m := NewMemory(1000)
	q, err := m.Quote([]byte("12345"))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Size != 5 {
		t.Fatalf("expected size 5, got %d", q.Size)
	}
}

func TestMemoryBalanceDecreasesAfterPut(t *testing.T) {
	m := NewMemory(10)
	before, err := m.Balance()
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	m.Put([]byte("12345"))
	after, err := m.Balance()
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if after.Total >= before.Total {
		t.Fatalf("expected balance to decrease after Put, before=%d after=%d", before.Total, after.Total)
	}
}

func TestMemoryBalanceInsufficientFunds(t *testing.T) {
	m := NewMemory(3)
	m.Put([]byte("way more than three bytes"))
	if _, err := m.Balance(); err == nil {
		t.Fatal("expected InsufficientFunds once stored blobs exceed configured funds")
	}
}
