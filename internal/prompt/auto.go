// internal/prompt/auto.go
package prompt

import (
	"context"

	"go.uber.org/zap"
)

// Auto answers prompts without a terminal: confirmations are accepted,
// choices take the first option and numbers their default. It backs
// unattended runs.
type Auto struct {
	logger *zap.Logger
}

var _ Prompter = (*Auto)(nil)

// NewAuto creates an Auto prompter that logs every answer it gives.
func NewAuto(logger *zap.Logger) *Auto {
	return &Auto{logger: logger.Named("prompt")}
}

func (a *Auto) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	a.logger.Info("Auto-confirmed prompt.", zap.String("prompt", message))
	return true, nil
}

func (a *Auto) ChooseOne(ctx context.Context, message string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	a.logger.Info("Auto-selected first option.", zap.String("prompt", message), zap.String("choice", options[0]))
	return options[0], nil
}

func (a *Auto) NumberInput(ctx context.Context, message string, def int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a.logger.Info("Auto-answered with default.", zap.String("prompt", message), zap.Int("value", def))
	return def, nil
}

// TextInput has no default to fall back on.
func (a *Auto) TextInput(ctx context.Context, message string) (string, error) {
	return "", ErrNonInteractive
}
