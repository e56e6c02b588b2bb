// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/enroll-cli/internal/config"
)

const defaultLaunchTimeout = 60 * time.Second

// Session is the chromedp implementation of Driver. It drives one tab of a
// browser it launches and owns.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	isClosed    bool
}

// Ensure Session implements the interface.
var _ Driver = (*Session)(nil)

// NewSession creates an unlaunched Session.
func NewSession(cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.Named("chromedp").With(zap.String("session_id", id)),
	}
}

// ID returns the unique identifier for the session.
func (s *Session) ID() string {
	return s.id
}

// Launch starts the browser process and attaches to its first tab. ctx
// bounds the startup only: the browser outlives it until Close.
func (s *Session) Launch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return ErrSessionClosed
	}
	if s.ctx != nil {
		return ErrAlreadyLaunched
	}

	timeout := s.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}
	launchCtx, launchCancel := context.WithTimeout(ctx, timeout)
	defer launchCancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(s.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(s.logger.Sugar().Debugf),
		chromedp.WithErrorf(s.logger.Sugar().Warnf),
	)

	// The first Run allocates the browser and is tied to browserCtx for
	// life, so the launch deadline is enforced from outside.
	errCh := make(chan error, 1)
	go func() { errCh <- chromedp.Run(browserCtx) }()

	select {
	case err := <-errCh:
		if err != nil {
			browserCancel()
			allocCancel()
			return fmt.Errorf("failed to launch browser: %w", err)
		}
	case <-launchCtx.Done():
		browserCancel()
		allocCancel()
		<-errCh
		return fmt.Errorf("browser launch timed out after %v: %w", timeout, launchCtx.Err())
	}

	s.ctx = browserCtx
	s.cancel = browserCancel
	s.allocCancel = allocCancel
	s.logger.Info("Browser launched.", zap.Bool("headless", s.cfg.Headless))
	return nil
}

// sessionContext returns the tab context, or an error when the session is unusable.
func (s *Session) sessionContext() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil, ErrSessionClosed
	}
	if s.ctx == nil {
		return nil, ErrNotLaunched
	}
	return s.ctx, nil
}

// runActions executes chromedp actions so that they respect both the session
// lifetime and the incoming operational context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	sessionCtx, err := s.sessionContext()
	if err != nil {
		return err
	}
	runCtx, cancel := CombineContext(sessionCtx, ctx)
	defer cancel()

	return chromedp.Run(runCtx, actions...)
}

// actionError puts the most meaningful cause on a failed action. The
// operational context wins over the raw chromedp error because CombineContext
// reports a deadline as a plain cancellation.
func (s *Session) actionError(ctx context.Context, action, selector string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s action timed out for selector '%s': %w", action, selector, ctxErr)
		}
		return ctxErr
	}
	if sessionCtx, _ := s.sessionContext(); sessionCtx == nil || sessionCtx.Err() != nil {
		return fmt.Errorf("%s action for selector '%s': %w", action, selector, ErrSessionClosed)
	}
	return fmt.Errorf("%s action failed for selector '%s': %w", action, selector, err)
}

// Navigate loads url in the tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating session.", zap.String("url", url))

	if err := s.runActions(ctx, chromedp.Navigate(url)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("navigation to %s timed out: %w", url, ctxErr)
			}
			return fmt.Errorf("navigation canceled: %w", ctxErr)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForElement blocks until selector is visible.
func (s *Session) WaitForElement(ctx context.Context, selector string) error {
	if err := s.runActions(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return s.actionError(ctx, "wait", selector, err)
	}
	return nil
}

// Click scrolls the element into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Attempting to click element", zap.String("selector", selector))

	err := s.runActions(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return s.actionError(ctx, "click", selector, err)
	}
	return nil
}

// Type focuses the element and sends text one rune at a time, paced by a
// rate limiter so the page's input handlers see every keystroke.
func (s *Session) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	s.logger.Debug("Attempting to type into element", zap.String("selector", selector), zap.Int("text_length", len(text)))

	if delay <= 0 {
		if err := s.runActions(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
			return s.actionError(ctx, "type", selector, err)
		}
		return nil
	}

	if err := s.runActions(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	); err != nil {
		return s.actionError(ctx, "type", selector, err)
	}

	limiter := rate.NewLimiter(rate.Every(delay), 1)
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return s.actionError(ctx, "type", selector, err)
		}
		if err := s.runActions(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return s.actionError(ctx, "type", selector, err)
		}
	}
	return nil
}

// SelectOption sets the value of a <select> element.
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	script := SelectOptionScript(selector, value)

	var ok bool
	err := s.runActions(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Evaluate(script, &ok, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true)
		}),
	)
	if err != nil {
		return s.actionError(ctx, "select", selector, err)
	}
	if !ok {
		return fmt.Errorf("select action failed for selector '%s': no option with value %q", selector, value)
	}
	return nil
}

// WaitUntilEnabled polls the enabled predicate every interval.
func (s *Session) WaitUntilEnabled(ctx context.Context, selector string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", interval)
	}
	script := EnabledScript(selector)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		var enabled bool
		if err := s.runActions(ctx, chromedp.Evaluate(script, &enabled)); err != nil {
			return s.actionError(ctx, "wait-enabled", selector, err)
		}
		if enabled {
			s.logger.Debug("Element enabled.", zap.String("selector", selector), zap.Int("polls", attempt))
			return nil
		}

		select {
		case <-ctx.Done():
			return s.actionError(ctx, "wait-enabled", selector, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Cookies reads every cookie visible to the tab.
func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// ClearCookies empties the browser cookie jar.
func (s *Session) ClearCookies(ctx context.Context) error {
	if err := s.runActions(ctx, network.ClearBrowserCookies()); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// Close terminates the browser. It waits for a graceful shutdown until ctx
// is done, then tears the allocator down regardless.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	browserCtx, cancel, allocCancel := s.ctx, s.cancel, s.allocCancel
	s.mu.Unlock()

	if browserCtx == nil {
		return nil
	}
	s.logger.Debug("Closing browser session.")

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(browserCtx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser did not shut down in time: %w", ctx.Err())
	}
	cancel()
	allocCancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Browser shutdown was not clean.", zap.Error(err))
		return err
	}
	return nil
}
