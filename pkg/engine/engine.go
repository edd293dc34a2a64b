// Package engine implements the payment authorization predicate.
//
// The predicate is total, side-effect-free and strictly binary: any failing
// check yields false, and rejection reasons never cross the public boundary.
// They are recorded on the internal audit channel only. There is no
// authority, role or override path that can force true when a check fails.
package engine

import (
	"context"
	"fmt"

	"github.com/fides-protocol/fides/core/pkg/audit"
	"github.com/fides-protocol/fides/core/pkg/chain"
	"github.com/fides-protocol/fides/core/pkg/ledger"
	"github.com/fides-protocol/fides/core/pkg/money"
	"github.com/fides-protocol/fides/core/pkg/record"
	"github.com/fides-protocol/fides/core/pkg/revindex"
)

// Internal diagnostic codes. Deliberately unexported: authorization is binary
// and reason codes are not part of the observable contract.
const (
	reasonAuthorized            = "AUTHORIZED"
	reasonRecordNotFound        = "RECORD_NOT_FOUND"
	reasonInvalidRecord         = "INVALID_RECORD"
	reasonChainBroken           = "CHAIN_BROKEN"
	reasonDecisionRevoked       = "DECISION_REVOKED"
	reasonInvalidPaymentDate    = "INVALID_PAYMENT_DATE"
	reasonInvalidDecisionDate   = "INVALID_DECISION_DATE"
	reasonPaymentBeforeDecision = "PAYMENT_BEFORE_DECISION"
	reasonExceptionExpired      = "EXCEPTION_EXPIRED"
	reasonBeneficiaryMismatch   = "BENEFICIARY_MISMATCH"
	reasonCurrencyMismatch      = "CURRENCY_MISMATCH"
	reasonInvalidNumericValue   = "INVALID_NUMERIC_VALUE"
	reasonInvalidPaymentValue   = "INVALID_PAYMENT_VALUE"
	reasonExceedsMaximumValue   = "EXCEEDS_MAXIMUM_VALUE"
	reasonLedgerUnavailable     = "LEDGER_UNAVAILABLE"
)

// Engine evaluates payment authorization against a ledger and a settlement
// log. It holds read-only views only; it never mutates either.
type Engine struct {
	ledger      ledger.Ledger
	settlements ledger.SettlementLog
	auditLog    audit.Logger
	index       revindex.Index
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudit routes internal rejection reasons to the given audit logger.
func WithAudit(l audit.Logger) Option {
	return func(e *Engine) { e.auditLog = l }
}

// WithRevocationIndex installs an O(1) revocation lookup. The linear chain
// scan remains the source of truth; the index is a fast path only.
func WithRevocationIndex(idx revindex.Index) Option {
	return func(e *Engine) { e.index = idx }
}

// New creates an authorization engine over the given ledger and settlement log.
func New(l ledger.Ledger, s ledger.SettlementLog, opts ...Option) *Engine {
	e := &Engine{ledger: l, settlements: s, auditLog: audit.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsPaymentAuthorized reports whether the payment may proceed.
//
// Binary. No errors. True or false.
func (e *Engine) IsPaymentAuthorized(ctx context.Context, p record.Payment) bool {
	ok, reason := e.authorize(ctx, p)
	_ = e.auditLog.Record(ctx, audit.EventDecision, "authorize",
		fmt.Sprintf("decision:%s", p.DecisionID), map[string]interface{}{
			"authorized": ok,
			"reason":     reason,
		})
	return ok
}

// authorize runs the gating checks in order, short-circuiting on the first
// failure. The reason accompanies the boolean for the audit channel only.
func (e *Engine) authorize(ctx context.Context, p record.Payment) (bool, string) {
	// 1. Locate the decision record.
	dr, err := e.ledger.FindDecision(ctx, p.DecisionID)
	if err != nil {
		return false, reasonRecordNotFound
	}

	// 2. Structural validity, binding rule included.
	if issues := dr.Validate(); len(issues) > 0 {
		return false, reasonInvalidRecord
	}

	// 3. Chain integrity for the prefix up to and including the decision.
	records, err := e.ledger.Records(ctx)
	if err != nil {
		return false, reasonLedgerUnavailable
	}
	prefix := prefixThrough(records, dr.Hash())
	if prefix == nil || !chain.VerifyFromGenesis(prefix) {
		return false, reasonChainBroken
	}

	// 4. Not revoked. A hit in the index is trusted (revocation is
	// monotonic); a miss still consults the chain.
	if e.index != nil {
		if revoked, err := e.index.IsRevoked(ctx, dr.Hash()); err == nil && revoked {
			return false, reasonDecisionRevoked
		}
	}
	revoked, err := e.ledger.IsRevoked(ctx, dr.Hash())
	if err != nil {
		return false, reasonLedgerUnavailable
	}
	if revoked {
		return false, reasonDecisionRevoked
	}

	// 5. Temporal order: a decision cannot authorize a payment dated before it.
	paymentDate, err := record.ParseDate(p.PaymentDate)
	if err != nil {
		return false, reasonInvalidPaymentDate
	}
	decisionDate, err := record.ParseDate(dr.DecisionDate)
	if err != nil {
		return false, reasonInvalidDecisionDate
	}
	if paymentDate.Before(decisionDate) {
		return false, reasonPaymentBeforeDecision
	}

	// Special decisions expire: no payment after maximum_term.
	if dr.Kind() == record.TypeSpecialDecision {
		term, err := record.ParseDate(dr.MaximumTerm)
		if err != nil {
			return false, reasonInvalidRecord
		}
		if paymentDate.After(term) {
			return false, reasonExceptionExpired
		}
	}

	// 6. Beneficiary exact match.
	if p.Beneficiary != dr.Beneficiary {
		return false, reasonBeneficiaryMismatch
	}

	// 7. Currency exact match, no implicit conversion.
	if p.Currency != dr.Currency {
		return false, reasonCurrencyMismatch
	}

	// 8. Cumulative limit in exact decimal arithmetic.
	value, err := money.ParseDecimal(p.Value)
	if err != nil {
		return false, reasonInvalidNumericValue
	}
	if value.Sign() <= 0 {
		return false, reasonInvalidPaymentValue
	}
	// Values below the currency's smallest unit cannot settle.
	if !value.FitsMinorUnits(p.Currency) {
		return false, reasonInvalidPaymentValue
	}
	maximum, err := money.ParseDecimal(dr.MaximumValue)
	if err != nil {
		return false, reasonInvalidNumericValue
	}
	settled, err := e.settlements.Settled(ctx, p.DecisionID)
	if err != nil {
		return false, reasonLedgerUnavailable
	}
	total := value
	for _, s := range settled {
		total = total.Add(s)
	}
	if total.Cmp(maximum) > 0 {
		return false, reasonExceedsMaximumValue
	}

	return true, reasonAuthorized
}

// prefixThrough returns the chain prefix ending at the record with the given
// stored hash, or nil when no such record exists.
func prefixThrough(records []record.Record, hash string) []record.Record {
	for i, r := range records {
		if r.Hash() == hash {
			return records[:i+1]
		}
	}
	return nil
}
