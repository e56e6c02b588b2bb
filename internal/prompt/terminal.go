// internal/prompt/terminal.go
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// Terminal asks questions on an interactive terminal.
type Terminal struct {
	in   io.Reader
	out  io.Writer
	opts []tea.ProgramOption
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal creates a Terminal on stdin and stdout.
func NewTerminal(opts ...tea.ProgramOption) *Terminal {
	return NewTerminalIO(os.Stdin, os.Stdout, opts...)
}

// NewTerminalIO creates a Terminal on the given streams.
func NewTerminalIO(in io.Reader, out io.Writer, opts ...tea.ProgramOption) *Terminal {
	return &Terminal{in: in, out: out, opts: opts}
}

// run drives model to completion and returns the final model.
func (t *Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	}, t.opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	return final, nil
}

// Confirm asks a yes/no question. Enter alone answers yes.
func (t *Terminal) Confirm(ctx context.Context, message string) (bool, error) {
	final, err := t.run(ctx, newConfirmModel(message, true))
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if !m.done {
		return false, ErrInterrupted
	}
	return m.value, nil
}

// ChooseOne asks the operator to pick one of options.
func (t *Terminal) ChooseOne(ctx context.Context, message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	final, err := t.run(ctx, newChooseModel(message, options))
	if err != nil {
		return "", err
	}
	m := final.(chooseModel)
	if !m.done {
		return "", ErrInterrupted
	}
	return m.choice(), nil
}

// NumberInput reads an integer. An empty answer yields def.
func (t *Terminal) NumberInput(ctx context.Context, message string, def int) (int, error) {
	final, err := t.run(ctx, newInputModel(message, true, def))
	if err != nil {
		return 0, err
	}
	m := final.(inputModel)
	if !m.done {
		return 0, ErrInterrupted
	}
	return m.number, nil
}

// TextInput reads one line of free text.
func (t *Terminal) TextInput(ctx context.Context, message string) (string, error) {
	final, err := t.run(ctx, newInputModel(message, false, 0))
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if !m.done {
		return "", ErrInterrupted
	}
	return m.text(), nil
}
