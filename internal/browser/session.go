// File: internal/browser/session.go

// Package browser owns the browser session on behalf of callers of the
// interactor. It starts a browser through the configured backend, exposes the
// resulting driver.Driver, and guarantees the session is torn down exactly once.
// The interactor itself never opens or closes anything.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/config"
	"github.com/xkilldash9x/rp1/internal/driver"
	cdpdriver "github.com/xkilldash9x/rp1/internal/driver/cdp"
	"github.com/xkilldash9x/rp1/internal/driver/webdriver"
)

const defaultNavigationTimeout = 90 * time.Second

// Function variables so tests can replace the real browser start-up.
var (
	newRemote     = selenium.NewRemote
	startChromedp = startChromedpTab
)

// Session is a live browser session and the driver bound to it.
type Session struct {
	backend    string
	driver     driver.Driver
	navigate   func(ctx context.Context, url string) error
	release    func() error
	logger     *zap.Logger
	navTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Open starts a browser session with the configured backend. The caller must
// Close the session on every exit path, typically with defer.
func Open(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := strings.ToLower(cfg.Browser().Backend)
	logger = logger.With(zap.String("component", "BrowserSession"), zap.String("backend", backend))

	navTimeout := cfg.Browser().NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}

	s := &Session{backend: backend, logger: logger, navTimeout: navTimeout}

	switch backend {
	case config.BackendCDP:
		if err := s.openCDP(ctx, cfg); err != nil {
			return nil, err
		}
	case config.BackendWebDriver:
		if err := s.openWebDriver(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported browser backend %q", cfg.Browser().Backend)
	}

	logger.Info("Browser session started.")
	return s, nil
}

// startChromedpTab launches a browser and returns a ready tab context.
func startChromedpTab(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (context.Context, func() error, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// An empty Run starts the browser and attaches to the first tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	release := func() error {
		err := chromedp.Cancel(tabCtx)
		allocCancel()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return tabCtx, release, nil
}

func (s *Session) openCDP(ctx context.Context, cfg config.Interface) error {
	tabCtx, release, err := startChromedp(ctx, cfg.Browser(), s.logger)
	if err != nil {
		return err
	}

	d, err := cdpdriver.New(tabCtx, s.logger, cdpdriver.Options{
		LocateTimeout:     cfg.Browser().LocateTimeout,
		VisibilityTimeout: cfg.Browser().VisibilityTimeout,
	})
	if err != nil {
		_ = release()
		return err
	}

	s.driver = d
	s.release = release
	s.navigate = func(ctx context.Context, url string) error {
		runCtx, cancel := cdpdriver.CombineContext(tabCtx, ctx)
		defer cancel()
		return chromedp.Run(runCtx, chromedp.Navigate(url))
	}
	return nil
}

func (s *Session) openWebDriver(cfg config.Interface) error {
	wd, err := newRemote(WebDriverCapabilities(cfg), cfg.WebDriver().URL)
	if err != nil {
		return fmt.Errorf("failed to create WebDriver session at %s: %w", cfg.WebDriver().URL, err)
	}

	d, err := webdriver.New(wd, s.logger)
	if err != nil {
		_ = wd.Quit()
		return err
	}

	s.driver = d
	s.release = wd.Quit
	s.navigate = func(ctx context.Context, url string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return wd.Get(url)
	}
	return nil
}

// Driver returns the driver bound to this session.
func (s *Session) Driver() driver.Driver {
	return s.driver
}

// Backend returns the backend name.
func (s *Session) Backend() string {
	return s.backend
}

// Navigate loads url, bounded by the configured navigation timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating.", zap.String("url", url))

	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()

	if err := s.navigate(navCtx, url); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, s.navTimeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Close releases the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.release != nil {
			s.closeErr = s.release()
		}
		if s.closeErr != nil {
			s.logger.Warn("Browser session did not shut down cleanly.", zap.Error(s.closeErr))
			return
		}
		s.logger.Info("Browser session closed.")
	})
	return s.closeErr
}
