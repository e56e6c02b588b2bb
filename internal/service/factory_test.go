// File: internal/service/factory_test.go
package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/browser/rodriver"
	"github.com/xkilldash9x/enroll-cli/internal/config"
	"github.com/xkilldash9x/enroll-cli/internal/journal"
	"github.com/xkilldash9x/enroll-cli/internal/mocks"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.Workflow.URL = "https://example.test/"
	cfg.Accounts.PendingFile = filepath.Join(dir, "accounts.txt")
	cfg.Accounts.RegisteredFile = filepath.Join(dir, "registered.txt")
	cfg.Accounts.TokensFile = filepath.Join(dir, "tokens.txt")
	cfg.Journal.Path = filepath.Join(dir, "journal.jsonl")
	return cfg
}

func TestInitializeDriver(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("chromedp by default", func(t *testing.T) {
		d, err := InitializeDriver(config.BrowserConfig{}, logger)
		require.NoError(t, err)
		assert.IsType(t, &browser.Session{}, d)
	})

	t.Run("rod", func(t *testing.T) {
		d, err := InitializeDriver(config.BrowserConfig{Driver: config.DriverRod}, logger)
		require.NoError(t, err)
		assert.IsType(t, &rodriver.Driver{}, d)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := InitializeDriver(config.BrowserConfig{Driver: "selenium"}, logger)
		assert.ErrorContains(t, err, "unsupported browser driver")
	})
}

func TestInitializeJournal(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("none", func(t *testing.T) {
		j, pool, err := InitializeJournal(ctx, config.JournalConfig{Type: config.JournalNone}, logger)
		require.NoError(t, err)
		assert.Nil(t, pool)
		assert.Equal(t, journal.Nop{}, j)
	})

	t.Run("jsonl", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "journal.jsonl")
		j, pool, err := InitializeJournal(ctx, config.JournalConfig{Type: config.JournalJSONL, Path: path}, logger)
		require.NoError(t, err)
		assert.Nil(t, pool)
		assert.IsType(t, &journal.JSONL{}, j)
		require.NoError(t, j.Close())
		assert.FileExists(t, path)
	})

	t.Run("jsonl bad path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "journal.jsonl")
		_, _, err := InitializeJournal(ctx, config.JournalConfig{Type: config.JournalJSONL, Path: path}, logger)
		assert.Error(t, err)
	})

	t.Run("postgres bad url", func(t *testing.T) {
		_, pool, err := InitializeJournal(ctx, config.JournalConfig{Type: config.JournalPostgres, DatabaseURL: "postgres://user@localhost:notaport/db"}, logger)
		assert.ErrorContains(t, err, "unable to parse PGX pool config")
		assert.Nil(t, pool)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := InitializeJournal(ctx, config.JournalConfig{Type: "kafka"}, logger)
		assert.ErrorContains(t, err, "unsupported journal type")
	})
}

func TestConcreteFactory_Create(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Type = config.JournalJSONL

	components, err := NewComponentFactory().Create(context.Background(), cfg, new(mocks.MockPrompter), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, components)

	assert.NotNil(t, components.Store)
	assert.Equal(t, cfg.Accounts.PendingFile, components.Store.PendingPath())
	assert.IsType(t, &browser.Session{}, components.Driver)
	assert.NotNil(t, components.Engine)
	assert.NotNil(t, components.Runner)
	assert.Nil(t, components.DBPool)

	components.Shutdown()

	// The journal is closed by Shutdown.
	err = components.Journal.Record(context.Background(), journal.Entry{Login: "alice"})
	assert.Error(t, err)
}

func TestConcreteFactory_CreateFailsOnJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Type = config.JournalJSONL
	cfg.Journal.Path = filepath.Join(t.TempDir(), "no", "such", "dir", "journal.jsonl")

	components, err := NewComponentFactory().Create(context.Background(), cfg, new(mocks.MockPrompter), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, components)
	assert.Contains(t, err.Error(), "failed to initialize journal")

	_, statErr := os.Stat(cfg.Accounts.PendingFile)
	assert.True(t, os.IsNotExist(statErr), "factory must not touch the queue files")
}
