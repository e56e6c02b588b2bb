// internal/browser/rodriver/driver.go
package rodriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/config"
)

const defaultLaunchTimeout = 60 * time.Second

// Driver implements browser.Driver on top of go-rod.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	isClosed bool
}

var _ browser.Driver = (*Driver)(nil)

// New creates an unlaunched rod driver.
func New(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("rod")}
}

// newLauncher builds the launcher from config, mirroring the chromedp
// allocator flags.
func (d *Driver) newLauncher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(d.cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage")

	if d.cfg.ExecPath != "" {
		l = l.Bin(d.cfg.ExecPath)
	}
	if d.cfg.DisableGPU {
		l = l.Set("disable-gpu")
	}
	if d.cfg.UserAgent != "" {
		l = l.Set("user-agent", d.cfg.UserAgent)
	}
	for _, raw := range d.cfg.Args {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// Launch starts Chrome and opens a blank tab.
func (d *Driver) Launch(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		return browser.ErrSessionClosed
	}
	if d.browser != nil {
		return browser.ErrAlreadyLaunched
	}

	timeout := d.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}
	launchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// The browser process must outlive the launch call.
	l := d.newLauncher(browser.Detach(ctx))

	type launched struct {
		url string
		err error
	}
	urlCh := make(chan launched, 1)
	go func() {
		u, err := l.Launch()
		urlCh <- launched{u, err}
	}()

	var controlURL string
	select {
	case res := <-urlCh:
		if res.err != nil {
			return fmt.Errorf("launch chrome: %w", res.err)
		}
		controlURL = res.url
	case <-launchCtx.Done():
		l.Kill()
		return fmt.Errorf("browser launch timed out after %v: %w", timeout, launchCtx.Err())
	}

	b := rod.New().ControlURL(controlURL).Context(browser.Detach(ctx))
	if err := b.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return fmt.Errorf("open tab: %w", err)
	}

	d.launcher = l
	d.browser = b
	d.page = page
	d.logger.Info("Browser launched.", zap.Bool("headless", d.cfg.Headless))
	return nil
}

// pageFor returns the tab bound to ctx.
func (d *Driver) pageFor(ctx context.Context) (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.isClosed {
		return nil, browser.ErrSessionClosed
	}
	if d.page == nil {
		return nil, browser.ErrNotLaunched
	}
	return d.page.Context(ctx), nil
}

// actionError maps a failed call onto the operational context where possible.
func actionError(ctx context.Context, action, selector string, err error) error {
	if errors.Is(err, browser.ErrNotLaunched) || errors.Is(err, browser.ErrSessionClosed) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s action timed out for selector '%s': %w", action, selector, ctxErr)
		}
		return ctxErr
	}
	return fmt.Errorf("%s action failed for selector '%s': %w", action, selector, err)
}

// element waits for selector to be present and visible.
func (d *Driver) element(ctx context.Context, selector string) (*rod.Element, error) {
	page, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	el, err := page.Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	return el, nil
}

// Navigate loads url and waits for the load event.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	d.logger.Debug("Navigating session.", zap.String("url", url))

	if err := page.Navigate(url); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("navigation to %s timed out: %w", url, ctxErr)
			}
			return fmt.Errorf("navigation canceled: %w", ctxErr)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("navigation failed waiting for load: %w", err)
	}
	return nil
}

// WaitForElement blocks until selector is visible.
func (d *Driver) WaitForElement(ctx context.Context, selector string) error {
	if _, err := d.element(ctx, selector); err != nil {
		return actionError(ctx, "wait", selector, err)
	}
	return nil
}

// Click clicks the element with the left mouse button.
func (d *Driver) Click(ctx context.Context, selector string) error {
	d.logger.Debug("Attempting to click element", zap.String("selector", selector))
	el, err := d.element(ctx, selector)
	if err == nil {
		err = el.Click(proto.InputMouseButtonLeft, 1)
	}
	if err != nil {
		return actionError(ctx, "click", selector, err)
	}
	return nil
}

// Type focuses the element and inserts text one rune at a time.
func (d *Driver) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	d.logger.Debug("Attempting to type into element", zap.String("selector", selector), zap.Int("text_length", len(text)))

	el, err := d.element(ctx, selector)
	if err != nil {
		return actionError(ctx, "type", selector, err)
	}
	if delay <= 0 {
		if err := el.Input(text); err != nil {
			return actionError(ctx, "type", selector, err)
		}
		return nil
	}
	if err := el.Focus(); err != nil {
		return actionError(ctx, "type", selector, err)
	}

	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	for _, r := range text {
		if err := limiter.Wait(ctx); err != nil {
			return actionError(ctx, "type", selector, err)
		}
		if err := page.InsertText(string(r)); err != nil {
			return actionError(ctx, "type", selector, err)
		}
	}
	return nil
}

// evalBool evaluates a JS expression in the page and reads a boolean result.
func evalBool(page *rod.Page, expr string) (bool, error) {
	res, err := page.Evaluate(&rod.EvalOptions{JS: "() => " + expr, ByValue: true})
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// SelectOption sets the value of a <select> element.
func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	if _, err := d.element(ctx, selector); err != nil {
		return actionError(ctx, "select", selector, err)
	}
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	ok, err := evalBool(page, browser.SelectOptionScript(selector, value))
	if err != nil {
		return actionError(ctx, "select", selector, err)
	}
	if !ok {
		return fmt.Errorf("select action failed for selector '%s': no option with value %q", selector, value)
	}
	return nil
}

// WaitUntilEnabled polls every interval until the element is enabled.
func (d *Driver) WaitUntilEnabled(ctx context.Context, selector string, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", interval)
	}
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	script := browser.EnabledScript(selector)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		enabled, err := evalBool(page, script)
		if err != nil {
			return actionError(ctx, "wait-enabled", selector, err)
		}
		if enabled {
			return nil
		}
		select {
		case <-ctx.Done():
			return actionError(ctx, "wait-enabled", selector, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Cookies reads every cookie visible to the tab.
func (d *Driver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	page, err := d.pageFor(ctx)
	if err != nil {
		return nil, err
	}
	res, err := proto.NetworkGetCookies{}.Call(page)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	cookies := make([]browser.Cookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		cookies = append(cookies, browser.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies, nil
}

// ClearCookies empties the browser cookie jar.
func (d *Driver) ClearCookies(ctx context.Context) error {
	page, err := d.pageFor(ctx)
	if err != nil {
		return err
	}
	if err := (proto.NetworkClearBrowserCookies{}).Call(page); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// Close shuts the browser down and kills the launched process.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.isClosed {
		d.mu.Unlock()
		return nil
	}
	d.isClosed = true
	b, l := d.browser, d.launcher
	d.mu.Unlock()

	if b == nil {
		return nil
	}
	d.logger.Debug("Closing browser session.")

	done := make(chan error, 1)
	go func() { done <- b.Close() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("browser did not shut down in time: %w", ctx.Err())
	}
	if l != nil {
		l.Kill()
		l.Cleanup()
	}
	if err != nil {
		d.logger.Warn("Browser shutdown was not clean.", zap.Error(err))
	}
	return err
}
