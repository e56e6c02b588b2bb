// internal/prompt/prompt.go
package prompt

import (
	"context"
	"errors"
)

var (
	// ErrInterrupted is returned when the operator dismisses a prompt with
	// Ctrl+C or Esc instead of answering it.
	ErrInterrupted = errors.New("prompt interrupted")
	// ErrNonInteractive is returned by prompts that have no sensible
	// automatic answer.
	ErrNonInteractive = errors.New("prompt needs an interactive terminal")
	// ErrNoOptions is returned by ChooseOne when given nothing to choose from.
	ErrNoOptions = errors.New("no options to choose from")
)

// Prompter asks the operator for decisions.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
	ChooseOne(ctx context.Context, message string, options []string) (string, error)
	NumberInput(ctx context.Context, message string, def int) (int, error)
	TextInput(ctx context.Context, message string) (string, error)
}
