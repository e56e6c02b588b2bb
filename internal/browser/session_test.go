// internal/browser/session_test.go
package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/enroll-cli/internal/config"
)

const testTimeout = 45 * time.Second

// requireBrowser skips the test unless a Chrome binary is reachable.
func requireBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary found in PATH")
}

func newFormServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	t.Cleanup(server.Close)
	return server
}

func newLaunchedSession(t *testing.T) (*Session, context.Context) {
	t.Helper()
	requireBrowser(t)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)

	s := NewSession(config.BrowserConfig{Headless: true, DisableGPU: true}, zaptest.NewLogger(t))
	require.NoError(t, s.Launch(ctx))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, ctx
}

func TestSession_NotLaunched(t *testing.T) {
	s := NewSession(config.BrowserConfig{}, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.ErrorIs(t, s.Navigate(ctx, "about:blank"), ErrNotLaunched)
	assert.ErrorIs(t, s.Click(ctx, "#x"), ErrNotLaunched)
	_, err := s.Cookies(ctx)
	assert.ErrorIs(t, err, ErrNotLaunched)

	// Closing an unlaunched session is a no-op, and afterwards it is unusable.
	assert.NoError(t, s.Close(ctx))
	assert.ErrorIs(t, s.Launch(ctx), ErrSessionClosed)
	assert.ErrorIs(t, s.ClearCookies(ctx), ErrSessionClosed)
}

func TestSession_FormInteraction(t *testing.T) {
	s, ctx := newLaunchedSession(t)
	server := newFormServer(t)

	require.NoError(t, s.Navigate(ctx, server.URL+"/form.html"))
	require.NoError(t, s.WaitForElement(ctx, "#username"))

	t.Run("TypeSendsOneKeystrokePerRune", func(t *testing.T) {
		require.NoError(t, s.Type(ctx, "#username", "alice", 5*time.Millisecond))

		var typed string
		require.NoError(t, s.runActions(ctx, chromedp.Text("#typed", &typed, chromedp.ByQuery)))
		assert.Equal(t, "5:alice", typed)
	})

	t.Run("SelectOptionFiresChange", func(t *testing.T) {
		require.NoError(t, s.SelectOption(ctx, "#month", "2"))

		var changed string
		require.NoError(t, s.runActions(ctx, chromedp.Text("#changed", &changed, chromedp.ByQuery)))
		assert.Equal(t, "2", changed)

		assert.Error(t, s.SelectOption(ctx, "#month", "13"))
	})

	t.Run("WaitUntilEnabledThenClickSetsCookie", func(t *testing.T) {
		require.NoError(t, s.WaitUntilEnabled(ctx, "#submit", 20*time.Millisecond))
		require.NoError(t, s.Click(ctx, "#submit"))

		cookies, err := s.Cookies(ctx)
		require.NoError(t, err)
		token, ok := FindCookie(cookies, "auth-token")
		require.True(t, ok)
		assert.Equal(t, "abc123", token)

		require.NoError(t, s.ClearCookies(ctx))
		cookies, err = s.Cookies(ctx)
		require.NoError(t, err)
		assert.Empty(t, cookies)
	})

	t.Run("MissingElementTimesOut", func(t *testing.T) {
		opCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()

		err := s.WaitForElement(opCtx, "#does-not-exist")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "timed out")
	})
}

func TestSession_LaunchTwice(t *testing.T) {
	s, ctx := newLaunchedSession(t)
	assert.ErrorIs(t, s.Launch(ctx), ErrAlreadyLaunched)
}
