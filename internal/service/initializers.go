// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/browser/rodriver"
	"github.com/xkilldash9x/enroll-cli/internal/config"
	"github.com/xkilldash9x/enroll-cli/internal/journal"
	"github.com/xkilldash9x/enroll-cli/internal/store"
)

// InitializeDriver returns the unlaunched browser driver selected by
// browser.driver.
func InitializeDriver(cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error) {
	switch cfg.Driver {
	case config.DriverChromedp, "":
		return browser.NewSession(cfg, logger), nil
	case config.DriverRod:
		return rodriver.New(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported browser driver: %s", cfg.Driver)
	}
}

// InitializeJournal opens the attempt journal selected by journal.type. The
// returned pool is non-nil only for the postgres backend and is owned by the
// caller.
func InitializeJournal(ctx context.Context, cfg config.JournalConfig, logger *zap.Logger) (journal.Journal, *pgxpool.Pool, error) {
	switch cfg.Type {
	case config.JournalNone, "":
		logger.Debug("Attempt journal disabled.")
		return journal.Nop{}, nil, nil

	case config.JournalJSONL:
		j, err := journal.OpenJSONL(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Recording attempts to JSONL journal.", zap.String("path", cfg.Path))
		return j, nil, nil

	case config.JournalPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to parse PGX pool config: %w", err)
		}
		// One writer, one row per attempt.
		poolConfig.MaxConns = 2
		poolConfig.MinConns = 1
		poolConfig.MaxConnLifetime = 1 * time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create PGX connection pool: %w", err)
		}

		s, err := store.New(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("Recording attempts to PostgreSQL journal.", zap.String("host", poolConfig.ConnConfig.Host))
		return s, pool, nil

	default:
		return nil, nil, fmt.Errorf("unsupported journal type: %s", cfg.Type)
	}
}
