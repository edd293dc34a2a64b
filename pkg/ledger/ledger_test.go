package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fides-protocol/fides/core/pkg/chain"
	"github.com/fides-protocol/fides/core/pkg/record"
)

func newStore(t *testing.T, backend string) Store {
	t.Helper()
	switch backend {
	case "memory":
		return NewMemStore()
	case "sqlite":
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		s, err := NewSQLStore(context.Background(), db)
		require.NoError(t, err)
		return s
	default:
		t.Fatalf("unknown backend %s", backend)
		return nil
	}
}

func backends() []string { return []string{"memory", "sqlite"} }

func newDR(t *testing.T, s Ledger) *record.DecisionRecord {
	t.Helper()
	head, err := s.Head(context.Background())
	require.NoError(t, err)
	ts := "2024-01-15T10:30:00Z"
	return &record.DecisionRecord{
		RecordType:      record.TypeDecision,
		DecisionID:      record.NewID(),
		Authority:       "GOV-DEMO-001",
		DecidersID:      []string{"DECIDER-001", "DECIDER-002"},
		ActType:         "contract",
		Currency:        "BRL",
		MaximumValue:    "100000.00",
		Beneficiary:     "SUPPLIER-ABC-123",
		LegalBasis:      "Procurement Act Art. 75",
		DecisionDate:    "2024-01-15T10:00:00Z",
		PreviousHash:    chain.PrevHashFor(head, "GOV-DEMO-001", ts),
		RecordTimestamp: ts,
		Signatures:      []string{"SIG-001", "SIG-002"},
	}
}

func newRR(t *testing.T, s Ledger, targetHash string) *record.RevocationRecord {
	t.Helper()
	head, err := s.Head(context.Background())
	require.NoError(t, err)
	ts := "2024-03-01T09:00:00Z"
	return &record.RevocationRecord{
		RecordType:       record.TypeRevocation,
		RevocationID:     record.NewID(),
		TargetRecordHash: targetHash,
		Authority:        "GOV-DEMO-001",
		DecidersID:       []string{"DECIDER-001"},
		RevocationReason: "contract cancelled",
		RevocationDate:   "2024-03-01",
		PreviousHash:     chain.PrevHashFor(head, "GOV-DEMO-001", ts),
		RecordTimestamp:  ts,
		Signatures:       []string{"SIG-001"},
	}
}

func TestAppendAndRead(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, backend)

			dr := newDR(t, s)
			h, err := s.Append(ctx, dr)
			require.NoError(t, err)
			assert.Len(t, h, 64)

			head, err := s.Head(ctx)
			require.NoError(t, err)
			assert.Equal(t, h, head)

			records, err := s.Records(ctx)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, h, records[0].Hash())

			got, err := s.FindDecision(ctx, dr.DecisionID)
			require.NoError(t, err)
			assert.Equal(t, dr.Beneficiary, got.Beneficiary)
			assert.Equal(t, dr.MaximumValue, got.MaximumValue)
			assert.Equal(t, h, got.Hash())
		})
	}
}

func TestAppendChainsRecords(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, backend)

			dr1 := newDR(t, s)
			h1, err := s.Append(ctx, dr1)
			require.NoError(t, err)

			dr2 := newDR(t, s)
			assert.Equal(t, h1, dr2.PreviousHash)
			h2, err := s.Append(ctx, dr2)
			require.NoError(t, err)
			assert.NotEqual(t, h1, h2)

			records, err := s.Records(ctx)
			require.NoError(t, err)
			assert.True(t, chain.VerifyFromGenesis(records))
		})
	}
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			s := newStore(t, backend)
			dr := newDR(t, s)
			dr.Signatures = []string{"SIG-001"} // binding rule violation

			_, err := s.Append(context.Background(), dr)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestAppendRejectsStaleTip(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, backend)

			_, err := s.Append(ctx, newDR(t, s))
			require.NoError(t, err)

			stale := newDR(t, s)
			stale.PreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"
			_, err = s.Append(ctx, stale)
			assert.ErrorIs(t, err, ErrStaleTip)
		})
	}
}

func TestRevocationLookup(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, backend)

			dr := newDR(t, s)
			drHash, err := s.Append(ctx, dr)
			require.NoError(t, err)

			revoked, err := s.IsRevoked(ctx, drHash)
			require.NoError(t, err)
			assert.False(t, revoked)

			_, err = s.Append(ctx, newRR(t, s, drHash))
			require.NoError(t, err)

			revoked, err = s.IsRevoked(ctx, drHash)
			require.NoError(t, err)
			assert.True(t, revoked)

			rr, err := s.FindRevocation(ctx, drHash)
			require.NoError(t, err)
			assert.Equal(t, drHash, rr.TargetRecordHash)
		})
	}
}

func TestFindDecisionNotFound(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			s := newStore(t, backend)
			_, err := s.FindDecision(context.Background(), record.NewID())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSettlements(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, backend)

			decisionID := record.NewID()
			for i, v := range []string{"50000.00", "25000.00"} {
				err := s.RecordSettlement(ctx, Settlement{
					PaymentID:   record.NewID(),
					DecisionID:  decisionID,
					Beneficiary: "SUPPLIER-ABC-123",
					Currency:    "BRL",
					Value:       v,
					PaymentDate: "2024-02-01",
				})
				require.NoError(t, err, i)
			}

			settled, err := s.Settled(ctx, decisionID)
			require.NoError(t, err)
			require.Len(t, settled, 2)

			total := settled[0].Add(settled[1])
			assert.Equal(t, "75000.00", total.String())

			// Other decisions are unaffected.
			other, err := s.Settled(ctx, record.NewID())
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestSettlementValidation(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	err := s.RecordSettlement(ctx, Settlement{PaymentID: "", DecisionID: "d", Currency: "BRL", Value: "1.00"})
	assert.Error(t, err)

	err = s.RecordSettlement(ctx, Settlement{PaymentID: "p", DecisionID: "d", Currency: "BRL", Value: "not-a-number"})
	assert.Error(t, err)

	err = s.RecordSettlement(ctx, Settlement{PaymentID: "p", DecisionID: "d", Currency: "BRL", Value: "-5.00"})
	assert.Error(t, err)

	err = s.RecordSettlement(ctx, Settlement{PaymentID: "p", DecisionID: "d", Currency: "money", Value: "1.00"})
	assert.Error(t, err, "currency must be a valid ISO 4217 code")

	err = s.RecordSettlement(ctx, Settlement{PaymentID: "p", DecisionID: "d", Currency: "BRL", Value: "1.005"})
	assert.Error(t, err, "sub-unit precision must be rejected")

	err = s.RecordSettlement(ctx, Settlement{PaymentID: "p", DecisionID: "d", Currency: "BRL", Value: "1.00"})
	assert.NoError(t, err)
}

func TestRecordsReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	_, err := s.Append(ctx, newDR(t, s))
	require.NoError(t, err)

	records, err := s.Records(ctx)
	require.NoError(t, err)
	records[0].(*record.DecisionRecord).MaximumValue = "999999999.00"

	again, err := s.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100000.00", again[0].(*record.DecisionRecord).MaximumValue,
		"mutating a returned view must not touch committed records")
}
