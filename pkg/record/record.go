// Package record defines the Fides record shapes: Decision Records (DR),
// Special Decision Records (SDR) and Revocation Records (RR), together with
// their structural validity rules.
//
// Structural validity is evaluated independent of chain position. A record
// that fails validation authorizes nothing, regardless of its other fields.
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/fides-protocol/fides/core/pkg/money"
)

// Type categorizes a ledger record.
type Type string

const (
	// TypeDecision authorizes a bounded class of future payments.
	TypeDecision Type = "DR"
	// TypeSpecialDecision is a decision with an expiry term (maximum_term).
	TypeSpecialDecision Type = "SDR"
	// TypeRevocation permanently nullifies a previously issued decision.
	TypeRevocation Type = "RR"
)

// Record is a chain entry. The stored record hash is held outside the hashed
// fields; only the append path may set it.
type Record interface {
	Kind() Type
	AuthorityID() string
	Timestamp() string
	PrevHash() string
	Hash() string
	SetHash(h string)
	Validate() []string
	// Clone returns an independent copy; ledger reads hand out clones so
	// callers only ever hold read-only views of committed records.
	Clone() Record
}

// DecisionRecord authorizes payments to a beneficiary up to a cumulative limit.
// The binding rule requires one signature per decider.
type DecisionRecord struct {
	RecordType      Type     `json:"record_type"`
	DecisionID      string   `json:"decision_id"`
	Authority       string   `json:"authority_id"`
	DecidersID      []string `json:"deciders_id"`
	ActType         string   `json:"act_type"`
	Currency        string   `json:"currency"`
	MaximumValue    string   `json:"maximum_value"`
	Beneficiary     string   `json:"beneficiary"`
	LegalBasis      string   `json:"legal_basis"`
	DecisionDate    string   `json:"decision_date"`
	PreviousHash    string   `json:"previous_record_hash"`
	RecordTimestamp string   `json:"record_timestamp"`
	Signatures      []string `json:"signatures"`
	// MaximumTerm is set on SDR records only: payments dated after it are blocked.
	MaximumTerm string `json:"maximum_term,omitempty"`

	// RecordHash is the stored chain hash. It is excluded from the canonical
	// encoding (hashing covers content plus predecessor link, never itself).
	RecordHash string `json:"-"`
}

func (d *DecisionRecord) Kind() Type {
	if d.RecordType == TypeSpecialDecision {
		return TypeSpecialDecision
	}
	return TypeDecision
}

func (d *DecisionRecord) AuthorityID() string { return d.Authority }
func (d *DecisionRecord) Timestamp() string   { return d.RecordTimestamp }
func (d *DecisionRecord) PrevHash() string    { return d.PreviousHash }
func (d *DecisionRecord) Hash() string        { return d.RecordHash }
func (d *DecisionRecord) SetHash(h string)    { d.RecordHash = h }

func (d *DecisionRecord) Clone() Record {
	cp := *d
	cp.DecidersID = append([]string(nil), d.DecidersID...)
	cp.Signatures = append([]string(nil), d.Signatures...)
	return &cp
}

// Validate returns the list of structural issues, empty when the record is valid.
func (d *DecisionRecord) Validate() []string {
	issues := []string{}

	if d.RecordType != TypeDecision && d.RecordType != TypeSpecialDecision {
		issues = append(issues, "invalid record_type")
	}
	if !IsUUIDv4(d.DecisionID) {
		issues = append(issues, "decision_id must be UUID v4")
	}
	if d.Authority == "" {
		issues = append(issues, "authority_id required")
	}
	if len(d.DecidersID) == 0 {
		issues = append(issues, "deciders_id must be non-empty")
	}
	if len(d.Signatures) == 0 {
		issues = append(issues, "signatures must be non-empty")
	}
	// Binding rule: one signature per decider.
	if len(d.DecidersID) != len(d.Signatures) {
		issues = append(issues, "deciders_id and signatures counts differ")
	}
	if d.ActType == "" {
		issues = append(issues, "act_type required")
	}
	if d.Beneficiary == "" {
		issues = append(issues, "beneficiary required")
	}
	if !money.ValidCurrencyCode(d.Currency) {
		issues = append(issues, "currency must be a 3-letter ISO 4217 code")
	}
	if v, err := money.ParseDecimal(d.MaximumValue); err != nil || v.Sign() <= 0 {
		issues = append(issues, "maximum_value must be a positive decimal")
	} else if !v.FitsMinorUnits(d.Currency) {
		issues = append(issues, "maximum_value has sub-unit precision for currency")
	}
	if !IsISO8601(d.DecisionDate) {
		issues = append(issues, "decision_date must be ISO 8601")
	}
	if !IsISO8601(d.RecordTimestamp) {
		issues = append(issues, "record_timestamp must be ISO 8601")
	}
	if IsISO8601(d.DecisionDate) && IsISO8601(d.RecordTimestamp) {
		dd, _ := ParseDate(d.DecisionDate)
		rt, _ := ParseDate(d.RecordTimestamp)
		if dd.After(rt) {
			issues = append(issues, "decision_date after record_timestamp")
		}
	}
	if d.RecordType == TypeSpecialDecision && !IsISO8601(d.MaximumTerm) {
		issues = append(issues, "maximum_term must be ISO 8601 for SDR")
	}

	return issues
}

// RevocationRecord nullifies the decision whose stored hash it targets.
// Once appended the target is permanently revoked; there is no un-revocation.
type RevocationRecord struct {
	RecordType       Type     `json:"record_type"`
	RevocationID     string   `json:"revocation_id"`
	TargetRecordHash string   `json:"target_record_hash"`
	Authority        string   `json:"authority_id"`
	DecidersID       []string `json:"deciders_id"`
	RevocationReason string   `json:"revocation_reason"`
	RevocationDate   string   `json:"revocation_date"`
	PreviousHash     string   `json:"previous_record_hash"`
	RecordTimestamp  string   `json:"record_timestamp"`
	Signatures       []string `json:"signatures"`

	RecordHash string `json:"-"`
}

func (r *RevocationRecord) Kind() Type          { return TypeRevocation }
func (r *RevocationRecord) AuthorityID() string { return r.Authority }
func (r *RevocationRecord) Timestamp() string   { return r.RecordTimestamp }
func (r *RevocationRecord) PrevHash() string    { return r.PreviousHash }
func (r *RevocationRecord) Hash() string        { return r.RecordHash }
func (r *RevocationRecord) SetHash(h string)    { r.RecordHash = h }

func (r *RevocationRecord) Clone() Record {
	cp := *r
	cp.DecidersID = append([]string(nil), r.DecidersID...)
	cp.Signatures = append([]string(nil), r.Signatures...)
	return &cp
}

func (r *RevocationRecord) Validate() []string {
	issues := []string{}

	if r.RecordType != TypeRevocation {
		issues = append(issues, "invalid record_type")
	}
	if !IsUUIDv4(r.RevocationID) {
		issues = append(issues, "revocation_id must be UUID v4")
	}
	if r.TargetRecordHash == "" {
		issues = append(issues, "target_record_hash required")
	}
	if r.Authority == "" {
		issues = append(issues, "authority_id required")
	}
	if len(r.DecidersID) == 0 {
		issues = append(issues, "deciders_id must be non-empty")
	}
	if len(r.Signatures) == 0 {
		issues = append(issues, "signatures must be non-empty")
	}
	if !IsISO8601(r.RevocationDate) {
		issues = append(issues, "revocation_date must be ISO 8601")
	}
	if !IsISO8601(r.RecordTimestamp) {
		issues = append(issues, "record_timestamp must be ISO 8601")
	}

	return issues
}

// Payment is a candidate payment. Ephemeral: it exists only for the duration
// of one authorization check and is never part of the record chain.
type Payment struct {
	DecisionID  string `json:"decision_id"`
	Beneficiary string `json:"beneficiary"`
	Currency    string `json:"currency"`
	Value       string `json:"value"`
	PaymentDate string `json:"payment_date"`
}

// IsUUIDv4 reports whether value is a valid version 4 UUID.
func IsUUIDv4(value string) bool {
	id, err := uuid.Parse(value)
	if err != nil {
		return false
	}
	return id.Version() == 4
}

// dateLayouts accepted for record dates: RFC 3339 timestamps and bare dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// IsISO8601 reports whether value parses as an ISO 8601 date or timestamp.
func IsISO8601(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// ParseDate parses an ISO 8601 date or timestamp.
func ParseDate(value string) (time.Time, error) {
	var err error
	var t time.Time
	for _, layout := range dateLayouts {
		if t, err = time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// NewID generates a new UUID v4 string.
func NewID() string {
	return uuid.New().String()
}

// Now returns the current UTC timestamp in the ledger's ISO 8601 form.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
