// internal/provision/runner.go
package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/accounts"
	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/journal"
	"github.com/xkilldash9x/enroll-cli/internal/workflow"
)

// Mode selects which workflow the runner drives for every account.
type Mode string

const (
	ModeRegister     Mode = "register"
	ModeAuthenticate Mode = "authenticate"
)

// ContinuePrompt is asked after every failed account.
const ContinuePrompt = "Continue with the next account?"

const closeTimeout = 15 * time.Second

// ErrAborted is returned when the operator declines to continue after a
// failure. The accounts after the failed one are left untouched.
var ErrAborted = errors.New("provisioning aborted by operator")

// Workflow is the per-account automation the runner drives.
type Workflow interface {
	Register(ctx context.Context, rec accounts.Record) workflow.Result
	Authenticate(ctx context.Context, login, password string) workflow.Result
}

// Queue receives the file transitions that follow a successful account.
type Queue interface {
	MoveToRegistered(login string) error
	AppendToken(login, token string) error
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Summary accounts for one Run.
type Summary struct {
	RunID     string
	Mode      Mode
	Total     int
	Attempted int
	Succeeded int
	Failed    int
	Aborted   bool
}

// Runner walks an account list sequentially through one browser session.
type Runner struct {
	driver    browser.Driver
	workflow  Workflow
	queue     Queue
	confirmer Confirmer
	journal   journal.Journal
	logger    *zap.Logger
}

// NewRunner wires a Runner. A nil journal disables journaling.
func NewRunner(driver browser.Driver, wf Workflow, queue Queue, confirmer Confirmer, j journal.Journal, logger *zap.Logger) *Runner {
	if j == nil {
		j = journal.Nop{}
	}
	return &Runner{
		driver:    driver,
		workflow:  wf,
		queue:     queue,
		confirmer: confirmer,
		journal:   j,
		logger:    logger.Named("provision"),
	}
}

// Run launches the driver once and processes records in order. It returns
// ErrAborted when the operator stops after a failure, the context error on
// cancellation, and any queue I/O error as fatal. The driver is closed
// before Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context, mode Mode, records []accounts.Record) (summary Summary, err error) {
	if mode != ModeRegister && mode != ModeAuthenticate {
		return Summary{}, fmt.Errorf("unknown provisioning mode '%s'", mode)
	}
	summary = Summary{
		RunID: uuid.New().String(),
		Mode:  mode,
		Total: len(records),
	}
	log := r.logger.With(zap.String("run_id", summary.RunID), zap.String("mode", string(mode)))

	if len(records) == 0 {
		log.Info("No accounts to process.")
		return summary, nil
	}

	// Close runs even when Launch fails part way through.
	defer func() {
		closeCtx, cancel := context.WithTimeout(browser.Detach(ctx), closeTimeout)
		defer cancel()
		if closeErr := r.driver.Close(closeCtx); closeErr != nil {
			log.Warn("Failed to close browser.", zap.Error(closeErr))
		}
	}()

	if err := r.driver.Launch(ctx); err != nil {
		return summary, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Info("Provisioning started.", zap.Int("accounts", len(records)))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			log.Warn("Provisioning interrupted.", zap.Int("remaining", len(records)-i))
			return summary, err
		}

		accLog := log.With(zap.Int("index", i+1), zap.String("login", rec.Login))
		accLog.Info("Processing account.")
		summary.Attempted++

		res := r.attempt(ctx, mode, rec)
		r.record(ctx, accLog, summary, i+1, rec.Login, res)

		if res.Succeeded() {
			summary.Succeeded++
			if err := r.commit(accLog, mode, rec, res); err != nil {
				return summary, err
			}
			continue
		}

		summary.Failed++
		accLog.Error("Account failed.",
			zap.String("step", string(res.Step)),
			zap.String("error_code", string(res.Code)),
			zap.Error(res.Cause),
		)
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		proceed, promptErr := r.confirmer.Confirm(ctx, ContinuePrompt)
		if promptErr != nil || !proceed {
			summary.Aborted = true
			log.Warn("Provisioning aborted.", zap.Int("remaining", len(records)-i-1))
			if promptErr != nil {
				return summary, fmt.Errorf("%w: %w", ErrAborted, promptErr)
			}
			return summary, ErrAborted
		}
	}

	log.Info("Provisioning finished.",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func (r *Runner) attempt(ctx context.Context, mode Mode, rec accounts.Record) workflow.Result {
	if mode == ModeAuthenticate {
		return r.workflow.Authenticate(ctx, rec.Login, rec.Password)
	}
	return r.workflow.Register(ctx, rec)
}

// commit applies the file transition of a successful account.
func (r *Runner) commit(log *zap.Logger, mode Mode, rec accounts.Record, res workflow.Result) error {
	switch mode {
	case ModeRegister:
		err := r.queue.MoveToRegistered(rec.Login)
		if errors.Is(err, accounts.ErrAccountNotFound) {
			log.Warn("Registered account was no longer in the pending file.", zap.Error(err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to move '%s' to registered accounts: %w", rec.Login, err)
		}
		log.Info("Account registered and moved.")
	case ModeAuthenticate:
		if err := r.queue.AppendToken(rec.Login, res.Token); err != nil {
			return fmt.Errorf("failed to store token for '%s': %w", rec.Login, err)
		}
		log.Info("Account authenticated.")
	}
	return nil
}

func (r *Runner) record(ctx context.Context, log *zap.Logger, s Summary, index int, login string, res workflow.Result) {
	entry := journal.Entry{
		RunID:  s.RunID,
		Mode:   string(s.Mode),
		Index:  index,
		Login:  login,
		Status: string(res.Status),
		Code:   string(res.Code),
		Step:   string(res.Step),
		At:     time.Now(),
	}
	if res.Cause != nil {
		entry.Message = res.Cause.Error()
	}
	if err := r.journal.Record(browser.Detach(ctx), entry); err != nil {
		log.Warn("Failed to journal attempt.", zap.Error(err))
	}
}
