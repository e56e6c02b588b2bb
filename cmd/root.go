// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/config"
	"github.com/xkilldash9x/enroll-cli/internal/observability"
	"github.com/xkilldash9x/enroll-cli/internal/prompt"
	"github.com/xkilldash9x/enroll-cli/internal/service"
)

// Work modes offered when no subcommand is given.
const (
	modeRegisterOption = "Register accounts from file"
	modeTokensOption   = "Get tokens from registered accounts"
)

// ErrSettingsCreated stops the first run after the default settings file
// has been written, so the operator can fill in the target.
var ErrSettingsCreated = errors.New("default settings file created")

// app carries the state shared by the root command and its subcommands.
type app struct {
	cfgFile   string
	assumeYes bool

	v      *viper.Viper
	cfg    *config.Config
	logger *zap.Logger

	factory     service.ComponentFactory
	newPrompter func(assumeYes bool, in io.Reader, logger *zap.Logger) (prompt.Prompter, error)
}

// defaultPrompter returns the terminal prompter, or the auto-confirming one
// for --yes. Without --yes stdin has to be a terminal.
func defaultPrompter(assumeYes bool, in io.Reader, logger *zap.Logger) (prompt.Prompter, error) {
	if assumeYes {
		return prompt.NewAuto(logger), nil
	}
	if f, ok := in.(*os.File); ok {
		fd := f.Fd()
		if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
			return nil, fmt.Errorf("stdin is not a terminal (hint: pass --yes for unattended runs): %w", prompt.ErrNonInteractive)
		}
	}
	return prompt.NewTerminal(), nil
}

// NewRootCommand builds the enroll command tree with production dependencies.
func NewRootCommand() *cobra.Command {
	return newRootCmd(service.NewComponentFactory(), defaultPrompter)
}

func newRootCmd(factory service.ComponentFactory, newPrompter func(bool, io.Reader, *zap.Logger) (prompt.Prompter, error)) *cobra.Command {
	a := &app{factory: factory, newPrompter: newPrompter}

	rootCmd := &cobra.Command{
		Use:           "enroll",
		Short:         "Registers and authenticates queued accounts through a scripted browser.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.prompter(cmd)
			if err != nil {
				return err
			}
			choice, err := p.ChooseOne(cmd.Context(), "Select work mode", []string{modeRegisterOption, modeTokensOption})
			if err != nil {
				return err
			}
			if choice == modeTokensOption {
				return a.runTokens(cmd, p)
			}
			return a.runRegister(cmd, p)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./"+config.DefaultSettingsFile+")")
	rootCmd.PersistentFlags().BoolVarP(&a.assumeYes, "yes", "y", false, "answer yes to every prompt (non-interactive runs)")
	rootCmd.PersistentFlags().Bool("headless", false, "run the browser without a window (overrides browser.headless)")
	rootCmd.PersistentFlags().String("driver", "", "browser driver: chromedp or rod (overrides browser.driver)")
	rootCmd.SetVersionTemplate(`{{printf "enroll version %s\n" .Version}}`)

	rootCmd.AddCommand(newRegisterCmd(a), newTokensCmd(a), newVersionCmd())
	return rootCmd
}

// Execute runs the command tree and logs a failure once.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSettingsCreated):
		fmt.Fprintln(os.Stderr, err)
		return nil
	case errors.Is(err, context.Canceled):
		observability.GetLogger().Warn("Interrupted.")
	default:
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}

// initialize loads the settings file (writing the defaults on first run),
// applies flag overrides and starts the logger.
func (a *app) initialize(cmd *cobra.Command) error {
	a.v = viper.New()
	config.SetDefaults(a.v)

	path, created, err := initializeConfig(cmd, a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		if created {
			return fmt.Errorf("%w at '%s'; set workflow.url and run again (%v)", ErrSettingsCreated, path, err)
		}
		return fmt.Errorf("failed to load or validate config: %w", err)
	}
	a.cfg = cfg

	observability.InitializeLogger(cfg.Logger)
	a.logger = observability.GetLogger()
	a.logger.Info("Starting enroll", zap.String("version", Version), zap.String("config", path))
	if created {
		a.logger.Info("Default settings file created.", zap.String("path", path))
	}
	return nil
}

// initializeConfig binds env vars and flags, makes sure a settings file
// exists and reads it. It returns the settings path and whether the file
// was created.
func initializeConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) (string, bool, error) {
	v.SetEnvPrefix("ENROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := cmd.Flags().Lookup("headless"); f != nil && f.Changed {
		if err := v.BindPFlag("browser.headless", f); err != nil {
			return "", false, err
		}
	}
	if f := cmd.Flags().Lookup("driver"); f != nil && f.Changed {
		if err := v.BindPFlag("browser.driver", f); err != nil {
			return "", false, err
		}
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultSettingsFile
	}
	created, err := config.EnsureSettingsFile(path)
	if err != nil {
		return "", false, err
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return "", false, fmt.Errorf("error reading config file: %w", err)
	}
	return path, created, nil
}

func (a *app) prompter(cmd *cobra.Command) (prompt.Prompter, error) {
	return a.newPrompter(a.assumeYes, cmd.InOrStdin(), a.logger)
}
