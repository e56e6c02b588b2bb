// internal/workflow/engine.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/accounts"
	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/config"
)

// Step names one wait+act unit of a sequence.
type Step string

// Registration steps, in order.
const (
	StepNavigate              Step = "navigate"
	StepOpenSignup            Step = "open_signup"
	StepSignupCredentials     Step = "signup_credentials"
	StepBirthdate             Step = "birthdate"
	StepEmail                 Step = "email"
	StepSignupSubmit          Step = "signup_submit"
	StepSkipEmailVerification Step = "skip_email_verification"
	StepSkipPhoneVerification Step = "skip_phone_verification"
	StepLoggedIn              Step = "logged_in"
	StepClearCookies          Step = "clear_cookies"
)

// Authentication-only steps.
const (
	StepLoginCredentials Step = "login_credentials"
	StepLoginSubmit      Step = "login_submit"
	StepReadToken        Step = "read_token"
)

// cleanupTimeout bounds the best-effort cookie wipe after a failed run.
const cleanupTimeout = 10 * time.Second

type stepKind int

const (
	kindAction stepKind = iota
	kindNavigate
)

type step struct {
	name Step
	kind stepKind
	run  func(ctx context.Context) error
}

// Engine drives one account at a time through the signup or login form.
// It never retries: the first failing step ends the run.
type Engine struct {
	driver browser.Driver
	cfg    config.WorkflowConfig
	logger *zap.Logger
}

// NewEngine creates an Engine over an already launched driver.
func NewEngine(driver browser.Driver, cfg config.WorkflowConfig, logger *zap.Logger) *Engine {
	return &Engine{
		driver: driver,
		cfg:    cfg,
		logger: logger.Named("workflow"),
	}
}

// Register creates the account described by rec.
func (e *Engine) Register(ctx context.Context, rec accounts.Record) Result {
	log := e.logger.With(zap.String("login", rec.Login), zap.String("mode", "register"))
	sel := e.cfg.Selectors
	birth := e.cfg.Birthdate

	steps := []step{
		e.navigateStep(),
		{StepOpenSignup, kindAction, func(ctx context.Context) error {
			return e.waitAndClick(ctx, sel.OpenSignup)
		}},
		{StepSignupCredentials, kindAction, func(ctx context.Context) error {
			if err := e.wait(ctx, sel.SignupLogin); err != nil {
				return err
			}
			if err := e.typeText(ctx, sel.SignupLogin, rec.Login); err != nil {
				return err
			}
			if err := e.typeText(ctx, sel.SignupPassword, rec.Password); err != nil {
				return err
			}
			return e.typeText(ctx, sel.SignupPasswordConfirm, rec.Password)
		}},
		{StepBirthdate, kindAction, func(ctx context.Context) error {
			if err := e.typeText(ctx, sel.BirthDay, birth.Day); err != nil {
				return err
			}
			if err := e.act(ctx, func(c context.Context) error {
				return e.driver.SelectOption(c, sel.BirthMonth, birth.Month)
			}); err != nil {
				return err
			}
			return e.typeText(ctx, sel.BirthYear, birth.Year)
		}},
		{StepEmail, kindAction, func(ctx context.Context) error {
			if err := e.waitAndClick(ctx, sel.EmailToggle); err != nil {
				return err
			}
			if err := e.wait(ctx, sel.Email); err != nil {
				return err
			}
			return e.typeText(ctx, sel.Email, rec.Mail)
		}},
		e.submitStep(StepSignupSubmit, sel.SignupSubmit),
		{StepSkipEmailVerification, kindAction, func(ctx context.Context) error {
			return e.waitAndClick(ctx, sel.SkipEmailVerification)
		}},
		{StepSkipPhoneVerification, kindAction, func(ctx context.Context) error {
			return e.waitAndClick(ctx, sel.SkipPhoneVerification)
		}},
		e.loggedInStep(),
		e.clearCookiesStep(),
	}

	if res := e.run(ctx, log, steps); !res.Succeeded() {
		return res
	}
	log.Info("Account registered.")
	return success("")
}

// Authenticate logs in and returns the auth cookie value as the token.
func (e *Engine) Authenticate(ctx context.Context, login, password string) Result {
	log := e.logger.With(zap.String("login", login), zap.String("mode", "authenticate"))
	sel := e.cfg.Selectors

	var token string
	steps := []step{
		e.navigateStep(),
		{StepLoginCredentials, kindAction, func(ctx context.Context) error {
			if err := e.wait(ctx, sel.LoginLogin); err != nil {
				return err
			}
			if err := e.typeText(ctx, sel.LoginLogin, login); err != nil {
				return err
			}
			return e.typeText(ctx, sel.LoginPassword, password)
		}},
		e.submitStep(StepLoginSubmit, sel.LoginSubmit),
		e.loggedInStep(),
		{StepReadToken, kindAction, func(ctx context.Context) error {
			var cookies []browser.Cookie
			err := e.act(ctx, func(c context.Context) error {
				var err error
				cookies, err = e.driver.Cookies(c)
				return err
			})
			if err != nil {
				return err
			}
			value, ok := browser.FindCookie(cookies, e.cfg.AuthCookie)
			if !ok || value == "" {
				return fmt.Errorf("cookie %q: %w", e.cfg.AuthCookie, ErrTokenMissing)
			}
			token = value
			return nil
		}},
		e.clearCookiesStep(),
	}

	if res := e.run(ctx, log, steps); !res.Succeeded() {
		return res
	}
	log.Info("Account authenticated.")
	return success(token)
}

// run executes steps in order and converts the first error into a failed
// Result. After a failure the cookie jar is wiped so the next account does
// not inherit a half-established session.
func (e *Engine) run(ctx context.Context, log *zap.Logger, steps []step) Result {
	for i, s := range steps {
		log.Debug("Workflow step started.", zap.Int("step", i+1), zap.String("name", string(s.name)))

		if err := ctx.Err(); err != nil {
			return fail(s.name, s.kind, err)
		}
		if err := s.run(ctx); err != nil {
			res := fail(s.name, s.kind, err)
			log.Warn("Workflow step failed.",
				zap.Int("step", i+1),
				zap.String("name", string(s.name)),
				zap.String("error_code", string(res.Code)),
				zap.Error(err),
			)
			if s.name != StepClearCookies {
				e.clearAfterFailure(ctx, log)
			}
			return res
		}
	}
	return success("")
}

func (e *Engine) clearAfterFailure(ctx context.Context, log *zap.Logger) {
	cleanupCtx, cancel := context.WithTimeout(browser.Detach(ctx), cleanupTimeout)
	defer cancel()
	if err := e.driver.ClearCookies(cleanupCtx); err != nil {
		log.Warn("Could not clear cookies after failure.", zap.Error(err))
	}
}

func (e *Engine) navigateStep() step {
	return step{StepNavigate, kindNavigate, func(ctx context.Context) error {
		navCtx, cancel := context.WithTimeout(ctx, e.cfg.NavigationTimeout)
		defer cancel()
		return e.driver.Navigate(navCtx, e.cfg.URL)
	}}
}

// submitStep polls the submit control until it is enabled and clicks it.
// Clicking a disabled control silently does nothing, hence the poll.
func (e *Engine) submitStep(name Step, selector string) step {
	return step{name, kindAction, func(ctx context.Context) error {
		if err := e.act(ctx, func(c context.Context) error {
			return e.driver.WaitUntilEnabled(c, selector, e.cfg.PollInterval)
		}); err != nil {
			return err
		}
		return e.act(ctx, func(c context.Context) error {
			return e.driver.Click(c, selector)
		})
	}}
}

func (e *Engine) loggedInStep() step {
	return step{StepLoggedIn, kindAction, func(ctx context.Context) error {
		return e.wait(ctx, e.cfg.Selectors.LoggedInMarker)
	}}
}

func (e *Engine) clearCookiesStep() step {
	return step{StepClearCookies, kindAction, func(ctx context.Context) error {
		return e.act(ctx, e.driver.ClearCookies)
	}}
}

// act runs one driver call under the action timeout.
func (e *Engine) act(ctx context.Context, fn func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, e.cfg.ActionTimeout)
	defer cancel()
	return fn(opCtx)
}

func (e *Engine) wait(ctx context.Context, selector string) error {
	return e.act(ctx, func(c context.Context) error {
		return e.driver.WaitForElement(c, selector)
	})
}

func (e *Engine) waitAndClick(ctx context.Context, selector string) error {
	if err := e.wait(ctx, selector); err != nil {
		return err
	}
	return e.act(ctx, func(c context.Context) error {
		return e.driver.Click(c, selector)
	})
}

func (e *Engine) typeText(ctx context.Context, selector, text string) error {
	return e.act(ctx, func(c context.Context) error {
		return e.driver.Type(c, selector, text, e.cfg.KeyDelay)
	})
}
