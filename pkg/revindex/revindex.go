// Package revindex provides an optional O(1) revocation lookup over the
// linear chain scan. It is a pure performance adapter: semantics stay with
// the ledger, and a missing index entry always falls back to the scan.
package revindex

import (
	"context"
	"sync"
)

// Index answers "is the decision with this record hash revoked" without
// walking the chain. Implementations may only ever add hashes: revocation is
// monotonic, there is no un-revocation.
type Index interface {
	MarkRevoked(ctx context.Context, recordHash string) error
	// IsRevoked returns (true, nil) only when the hash is known revoked.
	// (false, nil) means "not known here" — callers must still consult the
	// ledger before concluding anything.
	IsRevoked(ctx context.Context, recordHash string) (bool, error)
}

// MemIndex is an in-process Index.
type MemIndex struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemIndex() *MemIndex {
	return &MemIndex{revoked: make(map[string]struct{})}
}

func (m *MemIndex) MarkRevoked(ctx context.Context, recordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[recordHash] = struct{}{}
	return nil
}

func (m *MemIndex) IsRevoked(ctx context.Context, recordHash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[recordHash]
	return ok, nil
}
