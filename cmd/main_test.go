// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/config"
	"github.com/xkilldash9x/rp1/internal/driver"
	drivermock "github.com/xkilldash9x/rp1/internal/driver/mock"
	"github.com/xkilldash9x/rp1/internal/observability"
)

// resetForTest is the single source of truth for resetting package state.
func resetForTest(t *testing.T) {
	t.Helper()

	cfgFile = ""
	observability.ResetForTest()
	t.Setenv("RP1_LOGGER_LEVEL", "error")

	original := openSession
	t.Cleanup(func() {
		openSession = original
		observability.ResetForTest()
	})
}

// fakeSession stands in for a browser session.
type fakeSession struct {
	driver  *drivermock.Driver
	visited []string
	closed  int
}

func (s *fakeSession) Driver() driver.Driver { return s.driver }
func (s *fakeSession) Backend() string       { return "fake" }

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.visited = append(s.visited, url)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

// useFakeSession routes openSession to sess and records the config it saw.
func useFakeSession(sess *fakeSession) *config.Interface {
	var seen config.Interface
	openSession = func(_ context.Context, cfg config.Interface, _ *zap.Logger) (session, error) {
		seen = cfg
		return sess, nil
	}
	return &seen
}

// execute runs a fresh command tree and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
