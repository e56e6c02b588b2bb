// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/accounts"
	"github.com/xkilldash9x/enroll-cli/internal/config"
	"github.com/xkilldash9x/enroll-cli/internal/provision"
	"github.com/xkilldash9x/enroll-cli/internal/workflow"
)

// ComponentFactory builds the components of a provisioning run. Commands
// depend on the interface so tests can swap the browser out.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, confirmer provision.Confirmer, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create handles the dependency injection of a run: account store, browser
// driver, workflow engine, journal and runner.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, confirmer provision.Confirmer, logger *zap.Logger) (*Components, error) {
	components := &Components{logger: logger.Named("components")}

	// Release whatever was opened if a later step fails.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Account queue files
	components.Store = accounts.NewStore(cfg.Accounts, logger)

	// 2. Browser driver (launched later by the runner)
	driver, err := InitializeDriver(cfg.Browser, logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Driver = driver
	logger.Debug("Browser driver selected.", zap.String("driver", cfg.Browser.Driver))

	// 3. Workflow engine
	components.Engine = workflow.NewEngine(driver, cfg.Workflow, logger)

	// 4. Attempt journal
	j, pool, err := InitializeJournal(ctx, cfg.Journal, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize journal: %w", err)
		return nil, initializationErr
	}
	components.Journal = j
	components.DBPool = pool

	// 5. Runner
	components.Runner = provision.NewRunner(driver, components.Engine, components.Store, confirmer, j, logger)
	logger.Debug("Provisioning components initialized.")

	return components, nil
}
