// internal/browser/options.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/enroll-cli/internal/config"
)

// chromeFlag is one command-line switch passed to Chrome on top of chromedp's defaults.
type chromeFlag struct {
	Name  string
	Value interface{}
}

// chromeFlags lists the switches derived from cfg, in the order they are applied.
// Later entries win, so user supplied args can override the built-in ones.
func chromeFlags(cfg config.BrowserConfig) []chromeFlag {
	flags := []chromeFlag{
		// Required on hardened hosts and inside containers.
		{Name: "no-sandbox", Value: true},
		{Name: "disable-dev-shm-usage", Value: true},
		// DefaultExecAllocatorOptions is headless; a headed run lets the operator
		// watch the form and step in when a challenge appears.
		{Name: "headless", Value: cfg.Headless},
	}
	if cfg.DisableGPU {
		flags = append(flags, chromeFlag{Name: "disable-gpu", Value: true})
	}
	if cfg.UserAgent != "" {
		flags = append(flags, chromeFlag{Name: "user-agent", Value: cfg.UserAgent})
	}

	for _, arg := range cfg.Args {
		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if !hasValue {
			flags = append(flags, chromeFlag{Name: key, Value: true})
			continue
		}
		flags = append(flags, chromeFlag{Name: key, Value: value})
	}
	return flags
}

// AllocatorOptions translates the browser config into chromedp allocator options.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	flags := chromeFlags(cfg)

	// Copy the defaults so appends never alias the package-level array.
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(flags)+1)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range flags {
		opts = append(opts, chromedp.Flag(f.Name, f.Value))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}
