// internal/browser/driver.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
)

var (
	// ErrNotLaunched is returned by every operation issued before Launch.
	ErrNotLaunched = errors.New("browser session not launched")
	// ErrAlreadyLaunched is returned when Launch is called twice on one driver.
	ErrAlreadyLaunched = errors.New("browser session already launched")
	// ErrSessionClosed is returned once the session has been closed.
	ErrSessionClosed = errors.New("browser session closed")
)

// Cookie is a name/value pair read from the session's cookie jar.
type Cookie struct {
	Name  string
	Value string
}

// Driver is the capability set the form workflow needs from a browser.
// Implementations own a single tab for their whole lifetime. Every blocking
// call honours ctx, which is where callers put their per-step deadlines.
type Driver interface {
	// Launch starts the browser and opens the tab.
	Launch(ctx context.Context) error
	// Navigate loads url in the tab and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// WaitForElement blocks until an element matching selector is visible.
	WaitForElement(ctx context.Context, selector string) error
	// Click clicks the element matching selector.
	Click(ctx context.Context, selector string) error
	// Type sends text one keystroke at a time, spacing keystrokes by delay.
	// A non-positive delay sends the text in a single burst.
	Type(ctx context.Context, selector, text string, delay time.Duration) error
	// SelectOption sets the value of a <select> element and fires change events.
	SelectOption(ctx context.Context, selector, value string) error
	// WaitUntilEnabled polls every interval until the element exists and is
	// not disabled. There is no attempt cap: only ctx bounds the wait.
	WaitUntilEnabled(ctx context.Context, selector string, interval time.Duration) error
	// Cookies returns every cookie visible to the tab.
	Cookies(ctx context.Context) ([]Cookie, error)
	// ClearCookies empties the browser cookie jar.
	ClearCookies(ctx context.Context) error
	// Close shuts the browser down. It is safe to call more than once.
	Close(ctx context.Context) error
}

// FindCookie returns the value of the first cookie named name.
func FindCookie(cookies []Cookie, name string) (string, bool) {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// enabledPredicate reports whether the element exists and is enabled.
const enabledPredicate = `(function(sel) {
	const el = document.querySelector(sel);
	return !!el && !el.disabled;
})(%s)`

// selectOptionScript sets a <select> value and dispatches the events UI
// frameworks listen to. It yields false when no such option exists.
const selectOptionScript = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) {
		return false;
	}
	const hasOption = Array.from(el.options || []).some(o => o.value === value);
	if (!hasOption) {
		return false;
	}
	el.value = value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s, %s)`

// EnabledScript returns a JS expression that evaluates to true once the
// element matching selector exists and is not disabled.
func EnabledScript(selector string) string {
	return fmt.Sprintf(enabledPredicate, jsString(selector))
}

// SelectOptionScript returns a JS expression that selects value in the
// <select> matching selector and evaluates to whether it succeeded.
func SelectOptionScript(selector, value string) string {
	return fmt.Sprintf(selectOptionScript, jsString(selector), jsString(value))
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
