package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/journal"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func expectSchema(mockPool pgxmock.PgxPoolIface) {
	mockPool.ExpectPing()
	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateAttempts)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
}

// -- Test Cases --

func TestNew(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool := newMockPool(t)
		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err := New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should return error if schema creation fails", func(t *testing.T) {
		mockPool := newMockPool(t)
		ddlErr := errors.New("permission denied")
		mockPool.ExpectPing()
		mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateAttempts)).WillReturnError(ddlErr)

		_, err := New(context.Background(), mockPool, zap.NewNop())
		assert.ErrorIs(t, err, ddlErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should create schema on success", func(t *testing.T) {
		mockPool := newMockPool(t)
		expectSchema(mockPool)

		s, err := New(context.Background(), mockPool, zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, s)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	entry := journal.Entry{
		RunID: "run-1", Mode: "register", Index: 2, Login: "alice",
		Status: "failed", Code: "TIMEOUT_ERROR", Step: "signup_submit", Message: "timed out", At: at,
	}

	t.Run("should insert the entry in UTC", func(t *testing.T) {
		mockPool := newMockPool(t)
		expectSchema(mockPool)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertAttempt)).
			WithArgs("run-1", "register", 2, "alice", "failed", "TIMEOUT_ERROR", "signup_submit", "timed out", at.UTC()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		s, err := New(context.Background(), mockPool, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, s.Record(context.Background(), entry))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should wrap insert errors with the login", func(t *testing.T) {
		mockPool := newMockPool(t)
		expectSchema(mockPool)
		dbErr := errors.New("connection reset")
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertAttempt)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(dbErr)

		s, err := New(context.Background(), mockPool, zap.NewNop())
		require.NoError(t, err)

		err = s.Record(context.Background(), entry)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "alice")
	})

	t.Run("should reject an unexpected row count", func(t *testing.T) {
		mockPool := newMockPool(t)
		expectSchema(mockPool)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertAttempt)).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		s, err := New(context.Background(), mockPool, zap.NewNop())
		require.NoError(t, err)
		assert.Error(t, s.Record(context.Background(), entry))
	})
}

func TestClose(t *testing.T) {
	mockPool := newMockPool(t)
	expectSchema(mockPool)
	mockPool.ExpectClose()

	s, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
