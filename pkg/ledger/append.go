package ledger

import (
	"fmt"
	"strings"

	"github.com/fides-protocol/fides/core/pkg/chain"
	"github.com/fides-protocol/fides/core/pkg/money"
	"github.com/fides-protocol/fides/core/pkg/record"
)

// prepareAppend runs the shared append-boundary checks: structural validity,
// chain-link continuity against the current head, and hash computation. On
// success the record carries its freshly computed hash.
func prepareAppend(head string, r record.Record) (string, error) {
	if issues := r.Validate(); len(issues) > 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(issues, "; "))
	}
	expected := chain.PrevHashFor(head, r.AuthorityID(), r.Timestamp())
	if r.PrevHash() != expected {
		return "", ErrStaleTip
	}
	h, err := chain.RecordHash(r)
	if err != nil {
		return "", fmt.Errorf("ledger: hash record: %w", err)
	}
	r.SetHash(h)
	return h, nil
}

// validateSettlement checks a settlement before it is recorded.
func validateSettlement(s Settlement) error {
	if s.PaymentID == "" || s.DecisionID == "" {
		return fmt.Errorf("ledger: settlement requires payment_id and decision_id")
	}
	if !money.ValidCurrencyCode(s.Currency) {
		return fmt.Errorf("ledger: settlement currency %q is not a valid ISO 4217 code", s.Currency)
	}
	v, err := money.ParseDecimal(s.Value)
	if err != nil {
		return fmt.Errorf("ledger: settlement value: %w", err)
	}
	if v.Sign() <= 0 {
		return fmt.Errorf("ledger: settlement value must be positive")
	}
	if !v.FitsMinorUnits(s.Currency) {
		return fmt.Errorf("ledger: settlement value %s has sub-unit precision for %s", s.Value, s.Currency)
	}
	return nil
}
