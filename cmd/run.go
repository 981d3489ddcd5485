// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/browser"
	"github.com/xkilldash9x/rp1/internal/config"
	"github.com/xkilldash9x/rp1/internal/driver"
	"github.com/xkilldash9x/rp1/internal/interactor"
	"github.com/xkilldash9x/rp1/internal/observability"
	"github.com/xkilldash9x/rp1/internal/script"
)

// session is what the run command needs from a browser session.
type session interface {
	script.Navigator
	Driver() driver.Driver
	Backend() string
	Close() error
}

// openSession starts the browser. Replaced in tests.
var openSession = func(ctx context.Context, cfg config.Interface, logger *zap.Logger) (session, error) {
	s, err := browser.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newRunCmd() *cobra.Command {
	var (
		startURL  string
		logStatus bool
	)

	runCmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Runs an interaction script against a browser",
		Long: `Runs the steps of an interaction script in order. Every step waits for its
element by retrying at a fixed interval, so scripts need no explicit waits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			s, err := script.ParseFile(args[0])
			if err != nil {
				return err
			}

			status := interactor.WriterSink(cmd.OutOrStdout())
			if logStatus {
				status = interactor.ZapSink(observability.GetLogger().Named("interactor"))
			}
			return runScript(ctx, cfg, s, startURL, status, cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.StringVar(&startURL, "url", "", "URL to open before the first step (overrides the script's url)")
	flags.String("report", "", "write a JSON run report to this file")
	flags.String("backend", config.BackendCDP, "browser backend: cdp or webdriver")
	flags.String("webdriver-url", "", "WebDriver server URL for the webdriver backend")
	flags.Duration("retry-interval", interactor.DefaultRetryInterval, "pause between attempts of a waiting step")
	flags.Int("retry-count", interactor.DefaultMaxRetries, "retries per waiting step after the first attempt")
	flags.Bool("headless", true, "run the browser without a window")
	flags.BoolVar(&logStatus, "log-status", false, "send step status lines to the structured log instead of stdout")

	return runCmd
}

// runScript owns the browser for the duration of one script run.
func runScript(ctx context.Context, cfg config.Interface, s *script.Script, startURL string, status interactor.LogSink, out io.Writer) (err error) {
	logger := observability.GetLogger()

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close browser session: %w", closeErr)
		}
	}()

	it, err := interactor.New(sess.Driver(),
		interactor.WithRetrySleepTime(cfg.Retry().Interval),
		interactor.WithRetryCount(cfg.Retry().Count),
		interactor.WithLogSink(status),
	)
	if err != nil {
		return err
	}

	runner, err := script.NewRunner(it, sess, logger, script.WithBackend(sess.Backend()))
	if err != nil {
		return err
	}

	report, runErr := runner.Run(ctx, s, startURL)

	if path := cfg.Script().ReportPath; path != "" {
		if err := report.WriteFile(path); err != nil {
			return errors.Join(runErr, err)
		}
		logger.Info("Report written.", zap.String("path", path), zap.String("run_id", report.RunID))
	}

	fmt.Fprintln(out, report.Summary())
	return runErr
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script.yaml>...",
		Short: "Parses interaction scripts without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				s, err := script.ParseFile(path)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d steps)\n", path, len(s.Steps))
			}
			return errors.Join(errs...)
		},
	}
}
