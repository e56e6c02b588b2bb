// internal/accounts/store.go
package accounts

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/xkilldash9x/enroll-cli/internal/config"
)

// Store owns the pending, registered and tokens files.
type Store struct {
	pendingPath    string
	registeredPath string
	tokensPath     string
	logger         *zap.Logger
}

// NewStore creates a Store over the paths in cfg.
func NewStore(cfg config.AccountsConfig, logger *zap.Logger) *Store {
	return &Store{
		pendingPath:    cfg.PendingFile,
		registeredPath: cfg.RegisteredFile,
		tokensPath:     cfg.TokensFile,
		logger:         logger.Named("accounts"),
	}
}

// PendingPath returns the path of the pending queue.
func (s *Store) PendingPath() string { return s.pendingPath }

// RegisteredPath returns the path of the registered queue.
func (s *Store) RegisteredPath() string { return s.registeredPath }

// EnsurePending creates the pending file with an example line when it is
// missing. created tells the caller to stop and let the operator fill it.
func (s *Store) EnsurePending() (created bool, err error) {
	return s.ensureFile(s.pendingPath, ExampleLine)
}

// EnsureRegistered creates an empty registered file when it is missing.
func (s *Store) EnsureRegistered() (created bool, err error) {
	return s.ensureFile(s.registeredPath, "")
}

func (s *Store) ensureFile(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("could not stat '%s': %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("could not create '%s': %w", path, err)
	}
	s.logger.Info("Queue file created.", zap.String("path", path))
	return true, nil
}

// LoadPending parses the pending file (login:password:mail records).
func (s *Store) LoadPending() ([]Record, error) {
	return s.parseFile(s.pendingPath, true)
}

// LoadRegistered parses the registered file. Mail-less login:password
// records are accepted there.
func (s *Store) LoadRegistered() ([]Record, error) {
	return s.ParseCredentials(s.registeredPath)
}

// Parse reads path as a pending-layout queue. It is all-or-nothing: the
// first invalid line yields a *ParseError and no records at all, even when
// earlier lines were valid. An empty file yields an empty queue.
func (s *Store) Parse(path string) ([]Record, error) {
	return s.parseFile(path, true)
}

// ParseCredentials reads path like Parse but also accepts login:password
// lines. The mail check only applies when the field is present.
func (s *Store) ParseCredentials(path string) ([]Record, error) {
	return s.parseFile(path, false)
}

func (s *Store) parseFile(path string, requireMail bool) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read accounts file '%s': %w", path, err)
	}

	var records []Record
	for i, line := range strings.Split(string(raw), LineSeparator) {
		if line == "" {
			continue
		}

		rec, reason := parseLine(line, requireMail)
		if reason != "" {
			perr := &ParseError{Path: path, Line: i + 1, Login: rec.Login, Reason: reason}
			s.logger.Error("Failed to parse account.", zap.String("path", path), zap.Int("line", perr.Line), zap.String("login", rec.Login), zap.String("reason", reason))
			return nil, perr
		}

		records = append(records, rec)
		s.logger.Info("Parsed account.", zap.String("login", rec.Login))
	}

	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// MoveToRegistered relocates the first pending line whose login field equals
// login into the registered file. The registered file is rewritten before
// the pending file and each write is a temp-file rename, so an interruption
// can at worst leave the line in both files, never in neither.
func (s *Store) MoveToRegistered(login string) error {
	pendingRaw, err := os.ReadFile(s.pendingPath)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Cant find pending accounts file.", zap.String("path", s.pendingPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read pending file '%s': %w", s.pendingPath, err)
	}

	if _, err := s.EnsureRegistered(); err != nil {
		return err
	}
	registeredRaw, err := os.ReadFile(s.registeredPath)
	if err != nil {
		return fmt.Errorf("could not read registered file '%s': %w", s.registeredPath, err)
	}

	lines := strings.Split(string(pendingRaw), LineSeparator)
	idx := -1
	for i, line := range lines {
		if line != "" && loginOf(line) == login {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("could not move '%s': %w", login, ErrAccountNotFound)
	}

	moved := lines[idx]
	remaining := append(lines[:idx:idx], lines[idx+1:]...)

	registered := string(registeredRaw)
	if registered != "" && !strings.HasSuffix(registered, LineSeparator) {
		registered += LineSeparator
	}
	registered += moved + LineSeparator

	if err := renameio.WriteFile(s.registeredPath, []byte(registered), 0o600, renameio.WithExistingPermissions()); err != nil {
		return fmt.Errorf("could not write registered file: %w", err)
	}
	if err := renameio.WriteFile(s.pendingPath, []byte(strings.Join(remaining, LineSeparator)), 0o600, renameio.WithExistingPermissions()); err != nil {
		return fmt.Errorf("could not write pending file: %w", err)
	}

	s.logger.Debug("Account moved to registered file.", zap.String("login", login))
	return nil
}

// AppendToken appends "login:token" to the tokens file, creating it on demand.
func (s *Store) AppendToken(login, token string) error {
	if s.tokensPath == "" {
		return nil
	}
	f, err := os.OpenFile(s.tokensPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not open tokens file '%s': %w", s.tokensPath, err)
	}
	if _, err := f.WriteString(login + FieldSeparator + token + LineSeparator); err != nil {
		f.Close()
		return fmt.Errorf("could not append token: %w", err)
	}
	return f.Close()
}
