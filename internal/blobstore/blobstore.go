// Package blobstore defines the abstract backend a vault envelope can be
// pushed to for off-device durability, plus an in-memory reference
// implementation used by tests. Concrete network backends (Arweave,
// Nostr, IPFS) are out of scope for this module; only the interface and
// a local stand-in live here.
package blobstore

import (
	"fmt"
	"sync"

	"github.com/keyforge/keyforge/internal/corefail"
)

// Quote is a cost estimate for storing a blob of a given size.
type Quote struct {
	Size          int
	PriceMinor    int64
	Currency      string
	ExchangeRate  float64
}

// Balance reports the account funds backing a Store.
type Balance struct {
	Confirmed   int64
	Unconfirmed int64
	Total       int64
}

// Store is the abstract backend a vault envelope is pushed to. Put
// accepts the exact vault envelope from vaultcodec unchanged; Get
// composed with Latest must return the most recently Put envelope.
type Store interface {
	Put(data []byte) (handle string, err error)
	Get(handle string) ([]byte, error)
	Latest() (handle string, ok bool)
	Quote(data []byte) (Quote, error)
	Balance() (Balance, error)
}

// Memory is an in-memory Store used by tests and as a documented
// example local backend. It is not a production backend: nothing here
// survives process exit.
type Memory struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	order  []string
	funds  int64
}

// NewMemory constructs an empty Memory store, optionally pre-funded for
// Balance/Quote exercises.
func NewMemory(funds int64) *Memory {
	return &Memory{blobs: make(map[string][]byte), funds: funds}
}

// Put stores data under a new sequential handle.
func (m *Memory) Put(data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle := fmt.Sprintf("mem-%d", len(m.order))
	m.blobs[handle] = append([]byte{}, data...)
	m.order = append(m.order, handle)
	return handle, nil
}

// Get retrieves the blob stored under handle.
func (m *Memory) Get(handle string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[handle]
	if !ok {
		return nil, corefail.New(corefail.NotFound, "blobstore.Memory.Get", fmt.Errorf("no blob at handle %q", handle))
	}
	return append([]byte{}, data...), nil
}

// Latest returns the handle most recently passed to Put.
func (m *Memory) Latest() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) == 0 {
		return "", false
	}
	return m.order[len(m.order)-1], true
}

// Quote estimates storage cost as 1 minor unit per byte, flat.
func (m *Memory) Quote(data []byte) (Quote, error) {
	return Quote{
		Size:         len(data),
		PriceMinor:   int64(len(data)),
		Currency:     "USD",
		ExchangeRate: 1.0,
	}, nil
}

// Balance reports the store's configured funds, all confirmed.
func (m *Memory) Balance() (Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spent := int64(0)
	for _, b := range m.blobs {
		spent += int64(len(b))
	}
	remaining := m.funds - spent
	if remaining < 0 {
		return Balance{}, corefail.New(corefail.InsufficientFunds, "blobstore.Memory.Balance", fmt.Errorf("stored blobs exceed configured funds"))
	}
	return Balance{Confirmed: remaining, Unconfirmed: 0, Total: remaining}, nil
}
