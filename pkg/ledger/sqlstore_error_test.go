package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Storage faults must surface as errors at the boundary, never as a silent
// business-logic false.
func TestAppendSurfacesTipReadFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)

	boom := errors.New("disk on fire")
	mock.ExpectQuery("SELECT seq, record_hash FROM records").WillReturnError(boom)

	dr := newDR(t, NewMemStore())
	_, err = s.Append(context.Background(), dr)
	assert.ErrorIs(t, err, boom)
}

func TestSettledSurfacesQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s, err := NewSQLStore(context.Background(), db)
	require.NoError(t, err)

	boom := errors.New("connection lost")
	mock.ExpectQuery("SELECT value FROM payments").WillReturnError(boom)

	_, err = s.Settled(context.Background(), "some-decision")
	assert.ErrorIs(t, err, boom)
}
