// File: cmd/run.go
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/prompt"
	"github.com/xkilldash9x/enroll-cli/internal/provision"
)

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Registers every account in the pending file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.prompter(cmd)
			if err != nil {
				return err
			}
			return a.runRegister(cmd, p)
		},
	}
}

func newTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "Logs into every registered account and stores its auth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.prompter(cmd)
			if err != nil {
				return err
			}
			return a.runTokens(cmd, p)
		},
	}
}

// runRegister bootstraps the pending file, asks for a go-ahead and runs the
// registration loop.
func (a *app) runRegister(cmd *cobra.Command, p prompt.Prompter) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	components, err := a.factory.Create(ctx, a.cfg, p, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Shutdown()

	store := components.Store
	created, err := store.EnsurePending()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created %s. Add one login:password:mail line per account and run again.\n", store.PendingPath())
		return nil
	}

	records, err := store.LoadPending()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No accounts to register in %s.\n", store.PendingPath())
		return nil
	}

	start, err := p.Confirm(ctx, fmt.Sprintf("Start registration of %d accounts?", len(records)))
	if err != nil {
		return err
	}
	if !start {
		fmt.Fprintln(out, "Registration canceled.")
		return nil
	}

	summary, err := components.Runner.Run(ctx, provision.ModeRegister, records)
	return a.finish(out, summary, err)
}

// runTokens authenticates every account of the registered file.
func (a *app) runTokens(cmd *cobra.Command, p prompt.Prompter) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	components, err := a.factory.Create(ctx, a.cfg, p, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Shutdown()

	store := components.Store
	created, err := store.EnsureRegistered()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created %s. Register accounts first, then run again.\n", store.RegisteredPath())
		return nil
	}

	records, err := store.LoadRegistered()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No registered accounts in %s.\n", store.RegisteredPath())
		return nil
	}

	summary, err := components.Runner.Run(ctx, provision.ModeAuthenticate, records)
	if err == nil && summary.Succeeded > 0 && a.cfg.Accounts.TokensFile != "" {
		fmt.Fprintf(out, "Tokens appended to %s.\n", a.cfg.Accounts.TokensFile)
	}
	return a.finish(out, summary, err)
}

// finish prints the run summary. An operator abort is not a failure.
func (a *app) finish(out io.Writer, s provision.Summary, err error) error {
	fmt.Fprintf(out, "%s run %s: %d/%d attempted, %d succeeded, %d failed",
		s.Mode, s.RunID, s.Attempted, s.Total, s.Succeeded, s.Failed)
	if s.Aborted {
		fmt.Fprint(out, " (aborted)")
	}
	fmt.Fprintln(out)

	if errors.Is(err, provision.ErrAborted) {
		a.logger.Warn("Run stopped by operator.", zap.String("run_id", s.RunID))
		return nil
	}
	return err
}
