// Package chain implements the Fides hash chain: genesis anchors, record
// hashes over canonical encodings, and chain continuity verification.
//
// Hashing a record's content together with its predecessor's hash makes the
// sequence tamper-evident: altering any record or reordering the sequence
// changes a hash that every downstream verifier recomputes. No global clock
// or external anchor is required.
package chain

import (
	"github.com/fides-protocol/fides/core/pkg/canonicalize"
	"github.com/fides-protocol/fides/core/pkg/record"
)

// genesisPrefix is the literal seed prefix for chain anchors. Wire format;
// changing it breaks verification of every existing chain.
const genesisPrefix = "FIDES-GENESIS-"

// GenesisAnchor derives the fixed starting hash for a chain from the
// authority identifier and the first record's timestamp. Pure function.
func GenesisAnchor(authorityID, timestamp string) string {
	seed := genesisPrefix + authorityID + "-" + timestamp
	return canonicalize.HashBytes([]byte(seed))
}

// PrevHashFor returns the previous_record_hash for a new record: the chain
// head when one exists, otherwise the genesis anchor derived from the new
// record's own authority and timestamp.
func PrevHashFor(head, authorityID, timestamp string) string {
	if head == "" {
		return GenesisAnchor(authorityID, timestamp)
	}
	return head
}

// RecordHash computes the SHA-256 digest over the canonical encoding of the
// record's fields. The fields include previous_record_hash; the stored
// record_hash itself is never part of the input.
func RecordHash(r record.Record) (string, error) {
	return canonicalize.CanonicalHash(r)
}

// VerifyFromGenesis verifies a whole chain anchored at its own first record:
// the anchor is derived from the first record's authority and timestamp, the
// same way the append path derived it. An empty sequence is trivially valid.
func VerifyFromGenesis(records []record.Record) bool {
	if len(records) == 0 {
		return true
	}
	if records[0] == nil {
		return false
	}
	anchor := GenesisAnchor(records[0].AuthorityID(), records[0].Timestamp())
	return VerifyChain(records, anchor)
}

// VerifyChain walks the sequence once and reports whether it forms an intact
// chain from the given genesis anchor. For each record the declared
// previous_record_hash must match the predecessor's stored hash (the anchor
// for the first record) and the stored hash must match recomputation.
//
// Returns false on the first mismatch. A structurally malformed record is a
// verification failure, not an error.
func VerifyChain(records []record.Record, genesisAnchor string) bool {
	prev := genesisAnchor
	for _, r := range records {
		if r == nil {
			return false
		}
		if r.PrevHash() != prev {
			return false
		}
		computed, err := RecordHash(r)
		if err != nil {
			return false
		}
		if computed != r.Hash() {
			return false
		}
		prev = r.Hash()
	}
	return true
}
