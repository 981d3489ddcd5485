// File: internal/browser/session_test.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rp1/internal/config"
	cdpdriver "github.com/xkilldash9x/rp1/internal/driver/cdp"
	"github.com/xkilldash9x/rp1/internal/driver/webdriver"
	"github.com/xkilldash9x/rp1/internal/interactor"
)

// fakeWebDriver overrides the handful of session calls Session makes.
// Anything else panics on the nil embedded interface.
type fakeWebDriver struct {
	selenium.WebDriver
	visited []string
	getErr  error
	quits   int
	quitErr error
}

func (f *fakeWebDriver) Get(url string) error {
	f.visited = append(f.visited, url)
	return f.getErr
}

func (f *fakeWebDriver) Quit() error {
	f.quits++
	return f.quitErr
}

func stubRemote(t *testing.T, wd selenium.WebDriver, err error) *selenium.Capabilities {
	t.Helper()
	var captured selenium.Capabilities
	original := newRemote
	newRemote = func(caps selenium.Capabilities, url string) (selenium.WebDriver, error) {
		captured = caps
		return wd, err
	}
	t.Cleanup(func() { newRemote = original })
	return &captured
}

func webDriverConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.Backend = config.BackendWebDriver
	return cfg
}

func TestExecAllocatorOptions(t *testing.T) {
	base := len(chromedp.DefaultExecAllocatorOptions) + 3

	t.Run("Minimal", func(t *testing.T) {
		opts := ExecAllocatorOptions(config.BrowserConfig{Headless: true})
		assert.Len(t, opts, base)
	})

	t.Run("GPUAndProfile", func(t *testing.T) {
		opts := ExecAllocatorOptions(config.BrowserConfig{DisableGPU: true, UserDataDir: "/tmp/profile"})
		assert.Len(t, opts, base+2)
	})

	t.Run("CustomArgsSkipEmpty", func(t *testing.T) {
		opts := ExecAllocatorOptions(config.BrowserConfig{
			Args: []string{"--lang=en-US", "--mute-audio", "--", ""},
		})
		assert.Len(t, opts, base+2)
	})

	t.Run("DoesNotAliasDefaults", func(t *testing.T) {
		before := len(chromedp.DefaultExecAllocatorOptions)
		_ = ExecAllocatorOptions(config.BrowserConfig{DisableGPU: true})
		assert.Len(t, chromedp.DefaultExecAllocatorOptions, before)
	})
}

func TestWebDriverCapabilities(t *testing.T) {
	t.Run("HeadlessFirefox", func(t *testing.T) {
		cfg := webDriverConfig()
		caps := WebDriverCapabilities(cfg)

		assert.Equal(t, "firefox", caps["browserName"])
		assert.Equal(t, map[string]interface{}{"args": []string{"-headless"}}, caps["moz:firefoxOptions"])
	})

	t.Run("HeadedFirefoxHasNoOptions", func(t *testing.T) {
		cfg := webDriverConfig()
		cfg.BrowserCfg.Headless = false
		caps := WebDriverCapabilities(cfg)

		_, ok := caps["moz:firefoxOptions"]
		assert.False(t, ok)
	})

	t.Run("ChromeCarriesArgs", func(t *testing.T) {
		cfg := webDriverConfig()
		cfg.WebDriverCfg.BrowserName = "Chrome"
		cfg.BrowserCfg.Args = []string{"--lang=en-US"}
		caps := WebDriverCapabilities(cfg)

		assert.Equal(t, "chrome", caps["browserName"])
		assert.Equal(t,
			map[string]interface{}{"args": []string{"--lang=en-US", "--headless=new", "--disable-gpu"}},
			caps["goog:chromeOptions"])
	})

	t.Run("Edge", func(t *testing.T) {
		cfg := webDriverConfig()
		cfg.WebDriverCfg.BrowserName = "msedge"
		caps := WebDriverCapabilities(cfg)

		assert.Contains(t, caps, "ms:edgeOptions")
		assert.NotContains(t, caps, "goog:chromeOptions")
	})
}

func TestOpenWebDriver(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("LifecycleAndNavigation", func(t *testing.T) {
		wd := &fakeWebDriver{}
		caps := stubRemote(t, wd, nil)

		s, err := Open(context.Background(), webDriverConfig(), logger)
		require.NoError(t, err)
		assert.Equal(t, config.BackendWebDriver, s.Backend())
		assert.IsType(t, &webdriver.Driver{}, s.Driver())
		assert.Equal(t, "firefox", (*caps)["browserName"])

		require.NoError(t, s.Navigate(context.Background(), "http://example.test/"))
		assert.Equal(t, []string{"http://example.test/"}, wd.visited)

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, 1, wd.quits, "Quit must run exactly once")
	})

	t.Run("RemoteFailure", func(t *testing.T) {
		stubRemote(t, nil, errors.New("connection refused"))

		s, err := Open(context.Background(), webDriverConfig(), logger)
		assert.Nil(t, s)
		assert.ErrorContains(t, err, "failed to create WebDriver session at http://localhost:4444")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("NavigationFailureIsWrapped", func(t *testing.T) {
		cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
		wd := &fakeWebDriver{getErr: cause}
		stubRemote(t, wd, nil)

		s, err := Open(context.Background(), webDriverConfig(), logger)
		require.NoError(t, err)
		defer s.Close()

		err = s.Navigate(context.Background(), "http://nowhere.test/")
		assert.ErrorIs(t, err, cause)
		assert.ErrorContains(t, err, "navigation to http://nowhere.test/ failed")
	})

	t.Run("NavigationHonoursCancelledContext", func(t *testing.T) {
		wd := &fakeWebDriver{}
		stubRemote(t, wd, nil)

		s, err := Open(context.Background(), webDriverConfig(), logger)
		require.NoError(t, err)
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = s.Navigate(ctx, "http://example.test/")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, wd.visited)
	})

	t.Run("CloseErrorIsSticky", func(t *testing.T) {
		wd := &fakeWebDriver{quitErr: errors.New("session gone")}
		stubRemote(t, wd, nil)

		s, err := Open(context.Background(), webDriverConfig(), logger)
		require.NoError(t, err)

		assert.ErrorContains(t, s.Close(), "session gone")
		assert.ErrorContains(t, s.Close(), "session gone")
		assert.Equal(t, 1, wd.quits)
	})
}

func TestOpenCDPWithStubbedBrowser(t *testing.T) {
	released := 0
	original := startChromedp
	startChromedp = func(ctx context.Context, cfg config.BrowserConfig, _ *zap.Logger) (context.Context, func() error, error) {
		// An unstarted chromedp context is enough to bind the driver.
		tabCtx, cancel := chromedp.NewContext(ctx)
		return tabCtx, func() error {
			released++
			cancel()
			return nil
		}, nil
	}
	t.Cleanup(func() { startChromedp = original })

	s, err := Open(context.Background(), config.NewDefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, config.BackendCDP, s.Backend())
	assert.IsType(t, &cdpdriver.Driver{}, s.Driver())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, released)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.Backend = "playwright"

	s, err := Open(context.Background(), cfg, nil)
	assert.Nil(t, s)
	assert.ErrorContains(t, err, `unsupported browser backend "playwright"`)
}

// -- Integration against a real Chrome --

func findChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome or Chromium binary found on PATH")
}

const delayedPage = `<!doctype html>
<html><body>
<input id="name" value="">
<div id="status">pending</div>
<script>
setTimeout(function () {
  var b = document.createElement('button');
  b.id = 'late';
  b.onclick = function () { document.getElementById('status').textContent = 'clicked'; };
  b.textContent = 'Go';
  document.body.appendChild(b);
}, 300);
</script>
</body></html>`

func TestSessionAgainstChrome(t *testing.T) {
	findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, delayedPage)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	cfg := config.NewDefaultConfig()
	cfg.BrowserCfg.LocateTimeout = time.Second
	cfg.BrowserCfg.VisibilityTimeout = time.Second

	s, err := Open(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	var lines []string
	in, err := interactor.New(s.Driver(),
		interactor.WithRetrySleepTime(100*time.Millisecond),
		interactor.WithRetryCount(20),
		interactor.WithLogFunction(func(msg string) { lines = append(lines, msg) }),
	)
	require.NoError(t, err)

	require.NoError(t, in.Click(ctx, "#late"))
	require.NoError(t, in.SendKeys(ctx, "#name", "rp1"))

	value, err := in.GetElementValue(ctx, "#name")
	require.NoError(t, err)
	assert.Equal(t, "rp1", value)

	require.NoError(t, in.WaitForElementValueToPassTest(ctx, "#name", func(v string) bool { return v == "rp1" }))
	assert.Contains(t, lines, `click("#late") - Done.`)
}
