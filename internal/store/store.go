// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/journal"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const (
	sqlCreateAttempts = `
        CREATE TABLE IF NOT EXISTS enroll_attempts (
            id          BIGSERIAL PRIMARY KEY,
            run_id      TEXT        NOT NULL,
            mode        TEXT        NOT NULL,
            idx         INTEGER     NOT NULL,
            login       TEXT        NOT NULL,
            status      TEXT        NOT NULL,
            code        TEXT        NOT NULL DEFAULT '',
            step        TEXT        NOT NULL DEFAULT '',
            message     TEXT        NOT NULL DEFAULT '',
            attempted_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlInsertAttempt = `
        INSERT INTO enroll_attempts (run_id, mode, idx, login, status, code, step, message, attempted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
)

// Store is the PostgreSQL journal backend.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ journal.Journal = (*Store)(nil)

// New verifies the connection and makes sure the attempts table exists.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, sqlCreateAttempts); err != nil {
		return nil, fmt.Errorf("failed to create enroll_attempts table: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Record inserts one attempt row.
func (s *Store) Record(ctx context.Context, e journal.Entry) error {
	tag, err := s.pool.Exec(ctx, sqlInsertAttempt,
		e.RunID, e.Mode, e.Index, e.Login, e.Status, e.Code, e.Step, e.Message, e.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt for '%s': %w", e.Login, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("unexpected rows affected inserting attempt for '%s': %d", e.Login, tag.RowsAffected())
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
