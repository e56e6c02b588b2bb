// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported browser drivers.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// Supported journal backends.
const (
	JournalNone     = "none"
	JournalJSONL    = "jsonl"
	JournalPostgres = "postgres"
)

// DefaultSettingsFile is the settings file written on first run when no
// --config flag is given.
const DefaultSettingsFile = "config.yaml"

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Accounts AccountsConfig `mapstructure:"accounts" yaml:"accounts"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Journal  JournalConfig  `mapstructure:"journal" yaml:"journal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the automation browser is launched.
type BrowserConfig struct {
	Driver        string        `mapstructure:"driver" yaml:"driver"`
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	DisableGPU    bool          `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	ExecPath      string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// AccountsConfig holds the paths of the account queue files.
type AccountsConfig struct {
	PendingFile    string `mapstructure:"pending_file" yaml:"pending_file"`
	RegisteredFile string `mapstructure:"registered_file" yaml:"registered_file"`
	TokensFile     string `mapstructure:"tokens_file" yaml:"tokens_file"`
}

// JournalConfig selects where per-attempt outcomes are recorded.
type JournalConfig struct {
	Type        string `mapstructure:"type" yaml:"type"`
	Path        string `mapstructure:"path" yaml:"path"`
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
}

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "enroll")
	v.SetDefault("logger.log_file", "enroll.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	// Headed by default: the operator may have to clear a challenge by hand.
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.disable_gpu", false)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Accounts --
	v.SetDefault("accounts.pending_file", "accounts.txt")
	v.SetDefault("accounts.registered_file", "registeredAccounts.txt")
	v.SetDefault("accounts.tokens_file", "tokens.txt")

	// -- Workflow --
	setWorkflowDefaults(v)

	// -- Journal --
	v.SetDefault("journal.type", JournalNone)
	v.SetDefault("journal.path", "enroll-journal.jsonl")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	_ = v.BindEnv("journal.database_url", "ENROLL_JOURNAL_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.normalize()
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// EnsureSettingsFile writes the built-in defaults to path when no file
// exists there yet. It reports whether the file was created. Flag and
// environment overrides are never persisted.
func EnsureSettingsFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("could not stat settings file '%s': %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("could not create settings directory '%s': %w", dir, err)
		}
	}
	defaults := viper.New()
	SetDefaults(defaults)
	if err := defaults.WriteConfigAs(path); err != nil {
		return false, fmt.Errorf("could not write default settings to '%s': %w", path, err)
	}
	return true, nil
}

// normalize folds the enumerated settings to the lowercase names the rest
// of the tool switches on.
func (c *Config) normalize() {
	c.Browser.Driver = strings.ToLower(strings.TrimSpace(c.Browser.Driver))
	c.Journal.Type = strings.ToLower(strings.TrimSpace(c.Journal.Type))
}

// expandPaths resolves '~' in every file path the tool reads or writes.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Accounts.PendingFile,
		&c.Accounts.RegisteredFile,
		&c.Accounts.TokensFile,
		&c.Journal.Path,
		&c.Logger.LogFile,
		&c.Browser.ExecPath,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("could not resolve path '%s': %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case DriverChromedp, DriverRod:
	default:
		return fmt.Errorf("browser.driver must be one of %q, %q (got %q)", DriverChromedp, DriverRod, c.Browser.Driver)
	}
	if c.Accounts.PendingFile == "" || c.Accounts.RegisteredFile == "" {
		return fmt.Errorf("accounts.pending_file and accounts.registered_file are required")
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow configuration invalid: %w", err)
	}
	if err := c.Journal.Validate(); err != nil {
		return fmt.Errorf("journal configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the journal settings.
func (j *JournalConfig) Validate() error {
	switch j.Type {
	case JournalNone, "":
		return nil
	case JournalJSONL:
		if j.Path == "" {
			return fmt.Errorf("journal.path is required for the jsonl journal")
		}
		return nil
	case JournalPostgres:
		if j.DatabaseURL == "" {
			return fmt.Errorf("journal.database_url is required for the postgres journal (hint: set ENROLL_JOURNAL_DATABASE_URL)")
		}
		return nil
	default:
		return fmt.Errorf("unknown journal.type %q", j.Type)
	}
}
