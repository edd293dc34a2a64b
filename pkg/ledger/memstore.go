package ledger

import (
	"context"
	"sync"

	"github.com/fides-protocol/fides/core/pkg/money"
	"github.com/fides-protocol/fides/core/pkg/record"
)

// MemStore is an in-memory Store for tests and demos. It enforces the same
// append discipline as the SQL backend.
type MemStore struct {
	mu          sync.RWMutex
	records     []record.Record
	settlements []Settlement
	headHash    string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make([]record.Record, 0)}
}

func (m *MemStore) Append(ctx context.Context, r record.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := prepareAppend(m.headHash, r)
	if err != nil {
		return "", err
	}
	m.records = append(m.records, r.Clone())
	m.headHash = h
	return h, nil
}

func (m *MemStore) Records(ctx context.Context) ([]record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]record.Record, len(m.records))
	for i, r := range m.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *MemStore) Head(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.headHash, nil
}

func (m *MemStore) FindDecision(ctx context.Context, decisionID string) (*record.DecisionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		dr, ok := r.(*record.DecisionRecord)
		if ok && dr.DecisionID == decisionID {
			return dr.Clone().(*record.DecisionRecord), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) FindRevocation(ctx context.Context, targetHash string) (*record.RevocationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records {
		rr, ok := r.(*record.RevocationRecord)
		if ok && rr.TargetRecordHash == targetHash {
			return rr.Clone().(*record.RevocationRecord), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) IsRevoked(ctx context.Context, targetHash string) (bool, error) {
	_, err := m.FindRevocation(ctx, targetHash)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemStore) RecordSettlement(ctx context.Context, s Settlement) error {
	if err := validateSettlement(s); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements = append(m.settlements, s)
	return nil
}

func (m *MemStore) Settled(ctx context.Context, decisionID string) ([]money.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]money.Decimal, 0)
	for _, s := range m.settlements {
		if s.DecisionID != decisionID {
			continue
		}
		v, err := money.ParseDecimal(s.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
