package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fides-protocol/fides/core/pkg/money"
	"github.com/fides-protocol/fides/core/pkg/record"
)

// SQLStore implements Store using database/sql.
// It supports both Postgres and SQLite via standard drivers.
type SQLStore struct {
	db *sql.DB
	mu sync.Mutex // single-writer append discipline
}

// NewSQLStore wraps an open database handle and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// The schema is append-only by construction: no UPDATE or DELETE is ever
// issued, and the interface exposes neither.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		seq BIGINT PRIMARY KEY,
		record_type TEXT NOT NULL,
		decision_id TEXT,
		revocation_id TEXT,
		target_record_hash TEXT,
		authority_id TEXT NOT NULL,
		previous_record_hash TEXT NOT NULL,
		record_timestamp TEXT NOT NULL,
		record_data TEXT NOT NULL,
		record_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_records_decision_id ON records(decision_id)`,
	`CREATE INDEX IF NOT EXISTS idx_records_target_hash ON records(target_record_hash)`,
	`CREATE TABLE IF NOT EXISTS payments (
		payment_id TEXT PRIMARY KEY,
		decision_id TEXT NOT NULL,
		beneficiary TEXT NOT NULL,
		currency TEXT NOT NULL,
		value TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_decision_id ON payments(decision_id)`,
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ledger: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Append(ctx context.Context, r record.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var seq int64
	var head string
	row := s.db.QueryRowContext(ctx, `SELECT seq, record_hash FROM records ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&seq, &head); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("ledger: read tip: %w", err)
		}
	}

	h, err := prepareAppend(head, r)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("ledger: marshal record: %w", err)
	}

	var decisionID, revocationID, targetHash sql.NullString
	switch t := r.(type) {
	case *record.DecisionRecord:
		decisionID = sql.NullString{String: t.DecisionID, Valid: true}
	case *record.RevocationRecord:
		revocationID = sql.NullString{String: t.RevocationID, Valid: true}
		targetHash = sql.NullString{String: t.TargetRecordHash, Valid: true}
	}

	query := `
		INSERT INTO records (seq, record_type, decision_id, revocation_id, target_record_hash,
			authority_id, previous_record_hash, record_timestamp, record_data, record_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		seq+1, string(r.Kind()), decisionID, revocationID, targetHash,
		r.AuthorityID(), r.PrevHash(), r.Timestamp(), string(data), h,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("ledger: insert record: %w", err)
	}
	return h, nil
}

// decodeRecord rebuilds a typed record from its stored JSON and hash.
func decodeRecord(recordType, data, hash string) (record.Record, error) {
	switch record.Type(recordType) {
	case record.TypeDecision, record.TypeSpecialDecision:
		var dr record.DecisionRecord
		if err := json.Unmarshal([]byte(data), &dr); err != nil {
			return nil, fmt.Errorf("ledger: decode %s: %w", recordType, err)
		}
		dr.RecordHash = hash
		return &dr, nil
	case record.TypeRevocation:
		var rr record.RevocationRecord
		if err := json.Unmarshal([]byte(data), &rr); err != nil {
			return nil, fmt.Errorf("ledger: decode RR: %w", err)
		}
		rr.RecordHash = hash
		return &rr, nil
	default:
		return nil, fmt.Errorf("ledger: unknown record type %q", recordType)
	}
}

func (s *SQLStore) Records(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_type, record_data, record_hash FROM records ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([]record.Record, 0)
	for rows.Next() {
		var recordType, data, hash string
		if err := rows.Scan(&recordType, &data, &hash); err != nil {
			return nil, err
		}
		r, err := decodeRecord(recordType, data, hash)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLStore) Head(ctx context.Context) (string, error) {
	var head string
	row := s.db.QueryRowContext(ctx, `SELECT record_hash FROM records ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&head); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return head, nil
}

func (s *SQLStore) FindDecision(ctx context.Context, decisionID string) (*record.DecisionRecord, error) {
	query := `
		SELECT record_type, record_data, record_hash FROM records
		WHERE decision_id = $1 AND record_type IN ('DR', 'SDR')
		ORDER BY seq ASC LIMIT 1
	`
	var recordType, data, hash string
	row := s.db.QueryRowContext(ctx, query, decisionID)
	if err := row.Scan(&recordType, &data, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r, err := decodeRecord(recordType, data, hash)
	if err != nil {
		return nil, err
	}
	return r.(*record.DecisionRecord), nil
}

func (s *SQLStore) FindRevocation(ctx context.Context, targetHash string) (*record.RevocationRecord, error) {
	query := `
		SELECT record_type, record_data, record_hash FROM records
		WHERE target_record_hash = $1 AND record_type = 'RR'
		ORDER BY seq ASC LIMIT 1
	`
	var recordType, data, hash string
	row := s.db.QueryRowContext(ctx, query, targetHash)
	if err := row.Scan(&recordType, &data, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r, err := decodeRecord(recordType, data, hash)
	if err != nil {
		return nil, err
	}
	return r.(*record.RevocationRecord), nil
}

func (s *SQLStore) IsRevoked(ctx context.Context, targetHash string) (bool, error) {
	_, err := s.FindRevocation(ctx, targetHash)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) RecordSettlement(ctx context.Context, st Settlement) error {
	if err := validateSettlement(st); err != nil {
		return err
	}
	query := `
		INSERT INTO payments (payment_id, decision_id, beneficiary, currency, value, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		st.PaymentID, st.DecisionID, st.Beneficiary, st.Currency, st.Value, st.PaymentDate,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("ledger: insert payment: %w", err)
	}
	return nil
}

func (s *SQLStore) Settled(ctx context.Context, decisionID string) ([]money.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM payments WHERE decision_id = $1 ORDER BY created_at ASC`, decisionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make([]money.Decimal, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		v, err := money.ParseDecimal(value)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
