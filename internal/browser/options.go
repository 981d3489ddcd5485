// File: internal/browser/options.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/tebeka/selenium"

	"github.com/xkilldash9x/rp1/internal/config"
)

// ExecAllocatorOptions translates the browser config into chromedp allocator options.
func ExecAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		// DefaultExecAllocatorOptions is headless; this makes the config authoritative.
		chromedp.Flag("headless", cfg.Headless),
	)

	if cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	for _, arg := range cfg.Args {
		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if key == "" {
			continue
		}
		if hasValue {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// WebDriverCapabilities builds the capabilities for a new WebDriver session.
func WebDriverCapabilities(cfg config.Interface) selenium.Capabilities {
	name := strings.ToLower(cfg.WebDriver().BrowserName)
	if name == "" {
		name = "firefox"
	}
	caps := selenium.Capabilities{"browserName": name}

	var args []string
	for _, arg := range cfg.Browser().Args {
		if arg != "" {
			args = append(args, arg)
		}
	}

	switch name {
	case "firefox":
		if cfg.Browser().Headless {
			args = append(args, "-headless")
		}
		if len(args) > 0 {
			caps["moz:firefoxOptions"] = map[string]interface{}{"args": args}
		}
	case "chrome", "chromium", "msedge":
		if cfg.Browser().Headless {
			args = append(args, "--headless=new")
		}
		if cfg.Browser().DisableGPU {
			args = append(args, "--disable-gpu")
		}
		if len(args) > 0 {
			key := "goog:chromeOptions"
			if name == "msedge" {
				key = "ms:edgeOptions"
			}
			caps[key] = map[string]interface{}{"args": args}
		}
	}
	return caps
}
