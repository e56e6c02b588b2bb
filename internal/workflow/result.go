// internal/workflow/result.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Status is the terminal state of one workflow run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ErrorCode classifies a failed run for logs and the journal.
type ErrorCode string

const (
	ErrCodeElementNotFound  ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTimeoutError     ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigationError  ErrorCode = "NAVIGATION_ERROR"
	ErrCodeTokenMissing     ErrorCode = "TOKEN_MISSING"
	ErrCodeCanceled         ErrorCode = "CANCELED"
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
)

// ErrTokenMissing is the cause of an authentication that reached the logged
// in marker without the auth cookie being set.
var ErrTokenMissing = errors.New("auth token cookie not present")

// Result is the outcome of Register or Authenticate.
type Result struct {
	Status Status
	// Token is set by a successful Authenticate.
	Token string
	// Code, Step and Cause describe a failure.
	Code  ErrorCode
	Step  Step
	Cause error
}

// Succeeded reports whether the run reached its terminal success signal.
func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Succeeded() {
		return nil
	}
	return &StepError{Step: r.Step, Code: r.Code, Err: r.Cause}
}

// StepError is a failed workflow step.
type StepError struct {
	Step Step
	Code ErrorCode
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed (%s): %v", e.Step, e.Code, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func success(token string) Result {
	return Result{Status: StatusSuccess, Token: token}
}

func fail(step Step, kind stepKind, err error) Result {
	return Result{
		Status: StatusFailed,
		Code:   classify(kind, err),
		Step:   step,
		Cause:  err,
	}
}

// classify maps a driver error to an ErrorCode. Typed causes win; the
// message heuristics cover errors the drivers pass through from the
// browser.
func classify(kind stepKind, err error) ErrorCode {
	switch {
	case err == nil:
		return ErrCodeExecutionFailure
	case errors.Is(err, ErrTokenMissing):
		return ErrCodeTokenMissing
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeoutError
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "net::ERR"), kind == kindNavigate:
		return ErrCodeNavigationError
	case strings.Contains(msg, "no element found"), strings.Contains(msg, "could not find node"), strings.Contains(msg, "no option with value"):
		return ErrCodeElementNotFound
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return ErrCodeTimeoutError
	}
	return ErrCodeExecutionFailure
}
