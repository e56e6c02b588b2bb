// internal/journal/journal.go
package journal

import (
	"context"
	"time"
)

// Entry is one provisioning attempt. Passwords and tokens are never part of it.
type Entry struct {
	RunID   string    `json:"run_id"`
	Mode    string    `json:"mode"`
	Index   int       `json:"index"`
	Login   string    `json:"login"`
	Status  string    `json:"status"`
	Code    string    `json:"code,omitempty"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Journal records attempts as they finish. A failing journal never stops a
// run, so callers log Record errors and carry on.
type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

var _ Journal = Nop{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Close() error { return nil }
