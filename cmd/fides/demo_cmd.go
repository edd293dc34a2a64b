package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/fides-protocol/fides/core/pkg/audit"
	"github.com/fides-protocol/fides/core/pkg/chain"
	"github.com/fides-protocol/fides/core/pkg/config"
	"github.com/fides-protocol/fides/core/pkg/engine"
	"github.com/fides-protocol/fides/core/pkg/ledger"
	"github.com/fides-protocol/fides/core/pkg/record"
)

// runDemoCmd implements `fides demo`.
//
// Walks the canonical scenario: commit a decision, pay within its limit, get
// blocked over the limit, get blocked after revocation. The execution layer
// holds no authorization logic of its own; it only asks the predicate.
//
// Exit codes:
//
//	0 = demo completed
//	2 = runtime error
func runDemoCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("demo", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var withAudit bool
	cmd.BoolVar(&withAudit, "audit", false, "Emit audit events to stderr")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	cfg := config.Load()
	configureLogging(cfg)
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer closeStore()

	opts := engineOptions(cfg)
	if withAudit {
		opts = append(opts, engine.WithAudit(audit.NewLoggerWithWriter(stderr)))
	}
	e := engine.New(store, store, opts...)

	fmt.Fprintln(stdout)

	// [1] Commit a Decision Record.
	fmt.Fprint(stdout, "[1] Creating Decision Record... ")

	head, err := store.Head(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	dr, err := demoDecision(cfg, head)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	drHash, err := store.Append(ctx, dr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintln(stdout, "OK")

	// [2] Payment within the limit.
	fmt.Fprint(stdout, "[2] Attempting authorized payment... ")

	payment1 := record.Payment{
		DecisionID:  dr.DecisionID,
		Beneficiary: dr.Beneficiary,
		Currency:    dr.Currency,
		Value:       "50000.00",
		PaymentDate: "2024-02-01T14:00:00Z",
	}
	if e.IsPaymentAuthorized(ctx, payment1) {
		fmt.Fprintln(stdout, "AUTHORIZED")
		err := store.RecordSettlement(ctx, ledger.Settlement{
			PaymentID:   record.NewID(),
			DecisionID:  dr.DecisionID,
			Beneficiary: payment1.Beneficiary,
			Currency:    payment1.Currency,
			Value:       payment1.Value,
			PaymentDate: payment1.PaymentDate,
		})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	} else {
		fmt.Fprintln(stdout, "BLOCKED")
	}

	// [3] Payment that would exceed the cumulative limit.
	fmt.Fprint(stdout, "[3] Attempting payment exceeding limit... ")

	payment2 := record.Payment{
		DecisionID:  dr.DecisionID,
		Beneficiary: dr.Beneficiary,
		Currency:    dr.Currency,
		Value:       "60000.00",
		PaymentDate: "2024-02-15T14:00:00Z",
	}
	if e.IsPaymentAuthorized(ctx, payment2) {
		fmt.Fprintln(stdout, "AUTHORIZED")
	} else {
		fmt.Fprintln(stdout, "BLOCKED")
	}

	// [4] Revoke the decision, then try again within the limit.
	head, err = store.Head(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	rrTimestamp := "2024-03-01T09:00:00Z"
	rr := &record.RevocationRecord{
		RecordType:       record.TypeRevocation,
		RevocationID:     record.NewID(),
		TargetRecordHash: drHash,
		Authority:        dr.Authority,
		DecidersID:       dr.DecidersID,
		RevocationReason: "Contract cancelled by mutual agreement",
		RevocationDate:   "2024-03-01",
		PreviousHash:     chain.PrevHashFor(head, dr.Authority, rrTimestamp),
		RecordTimestamp:  rrTimestamp,
		Signatures:       dr.Signatures,
	}
	if _, err := store.Append(ctx, rr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	fmt.Fprint(stdout, "[4] Attempting payment after revocation... ")

	payment3 := record.Payment{
		DecisionID:  dr.DecisionID,
		Beneficiary: dr.Beneficiary,
		Currency:    dr.Currency,
		Value:       "10000.00",
		PaymentDate: "2024-03-05T14:00:00Z",
	}
	if e.IsPaymentAuthorized(ctx, payment3) {
		fmt.Fprintln(stdout, "AUTHORIZED")
	} else {
		fmt.Fprintln(stdout, "BLOCKED")
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Fides: No record, no payment.")
	fmt.Fprintln(stdout)

	records, err := store.Records(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if chain.VerifyFromGenesis(records) {
		fmt.Fprintf(stdout, "Chain integrity: VALID (%d records)\n", len(records))
	} else {
		fmt.Fprintln(stdout, "Chain integrity: BROKEN")
	}

	return 0
}

// demoDecision builds the scenario's decision record. Authority, deciders and
// currency come from the configured authority profile when a profiles
// directory is set; otherwise the built-in demo identities are used.
func demoDecision(cfg *config.Config, head string) (*record.DecisionRecord, error) {
	authority := cfg.AuthorityID
	deciders := []string{"DECIDER-001", "DECIDER-002"}
	currency := "BRL"

	if cfg.ProfilesDir != "" {
		profile, err := config.LoadAuthorityProfile(cfg.ProfilesDir, cfg.Profile)
		if err != nil {
			return nil, err
		}
		if profile.AuthorityID != "" {
			authority = profile.AuthorityID
		}
		if ids := profile.DeciderIDs(); len(ids) > 0 {
			deciders = ids
		}
		if profile.Currency != "" {
			currency = profile.Currency
		}
	}

	// One signature placeholder per decider, per the binding rule.
	signatures := make([]string, len(deciders))
	for i := range deciders {
		signatures[i] = fmt.Sprintf("SIG-%03d", i+1)
	}

	ts := "2024-01-15T10:30:00Z"
	return &record.DecisionRecord{
		RecordType:      record.TypeDecision,
		DecisionID:      record.NewID(),
		Authority:       authority,
		DecidersID:      deciders,
		ActType:         "contract",
		Currency:        currency,
		MaximumValue:    "100000.00",
		Beneficiary:     "SUPPLIER-ABC-123",
		LegalBasis:      "Lei 14.133/2021 Art. 75",
		DecisionDate:    "2024-01-15T10:00:00Z",
		PreviousHash:    chain.PrevHashFor(head, authority, ts),
		RecordTimestamp: ts,
		Signatures:      signatures,
	}, nil
}
