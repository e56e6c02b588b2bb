// File: internal/service/components.go
package service

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/accounts"
	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/journal"
	"github.com/xkilldash9x/enroll-cli/internal/provision"
	"github.com/xkilldash9x/enroll-cli/internal/workflow"
)

// Components holds everything a provisioning run needs. The driver is
// launched and closed by the Runner; Shutdown releases the rest.
type Components struct {
	Store   *accounts.Store
	Driver  browser.Driver
	Engine  *workflow.Engine
	Journal journal.Journal
	Runner  *provision.Runner
	DBPool  *pgxpool.Pool

	logger *zap.Logger
}

// Shutdown closes the journal and then the database pool. Safe on a
// partially initialized Components.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning components shutdown sequence.")

	if c.Journal != nil {
		if err := c.Journal.Close(); err != nil {
			logger.Warn("Error closing journal.", zap.Error(err))
		} else {
			logger.Debug("Journal closed.")
		}
	}

	// Closing twice is a no-op for pgxpool.
	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}

	logger.Debug("All components shut down.")
}
