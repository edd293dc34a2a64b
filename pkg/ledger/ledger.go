// Package ledger — immutable append-only record storage.
//
//   - Each record is hash-chained to its predecessor
//   - Append-only; the interface exposes no update or delete
//   - Appends are serialized per store: each new record's previous_record_hash
//     depends on the current tip, so a single-writer discipline is enforced
package ledger

import (
	"context"
	"errors"

	"github.com/fides-protocol/fides/core/pkg/money"
	"github.com/fides-protocol/fides/core/pkg/record"
)

var (
	// ErrNotFound is returned when no matching record exists.
	ErrNotFound = errors.New("ledger: record not found")
	// ErrStaleTip is returned when a record's previous_record_hash does not
	// match the current chain tip. Rejected at the boundary, never converted
	// into a business-logic false.
	ErrStaleTip = errors.New("ledger: previous_record_hash does not match chain tip")
	// ErrInvalidRecord is returned when a structurally invalid record reaches
	// the append boundary.
	ErrInvalidRecord = errors.New("ledger: structurally invalid record")
)

// Ledger is the read/append contract the authorization core depends on.
// Records come back in append order as independent copies.
type Ledger interface {
	// Append validates the record structurally, checks the chain link against
	// the current tip, computes and attaches the record hash, and commits.
	// Returns the new record's hash.
	Append(ctx context.Context, r record.Record) (string, error)

	// Records returns all committed records in append order.
	Records(ctx context.Context) ([]record.Record, error)

	// Head returns the current tip hash, or "" for an empty chain.
	Head(ctx context.Context) (string, error)

	// FindDecision returns the first decision record (DR or SDR) with the
	// given decision id, or ErrNotFound.
	FindDecision(ctx context.Context, decisionID string) (*record.DecisionRecord, error)

	// FindRevocation returns the first revocation record targeting the given
	// record hash, or ErrNotFound.
	FindRevocation(ctx context.Context, targetHash string) (*record.RevocationRecord, error)

	// IsRevoked reports whether any revocation record targets the given hash.
	IsRevoked(ctx context.Context, targetHash string) (bool, error)
}

// Settlement is one executed payment attributed to a decision record.
type Settlement struct {
	PaymentID   string `json:"payment_id"`
	DecisionID  string `json:"decision_id"`
	Beneficiary string `json:"beneficiary"`
	Currency    string `json:"currency"`
	Value       string `json:"value"`
	PaymentDate string `json:"payment_date"`
}

// SettlementLog records executed payments and enumerates prior settlements
// per decision. The authorization engine consumes it read-only, for the
// cumulative-limit check.
type SettlementLog interface {
	RecordSettlement(ctx context.Context, s Settlement) error
	Settled(ctx context.Context, decisionID string) ([]money.Decimal, error)
}

// Store combines the record chain and the settlement log, the shape both
// backends implement.
type Store interface {
	Ledger
	SettlementLog
}
