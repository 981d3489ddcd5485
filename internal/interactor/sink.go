// File: internal/interactor/sink.go
package interactor

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// LogSink receives the human-readable status lines an Interactor emits before
// and after each sub-step and on every retry. Calls are synchronous.
type LogSink interface {
	Log(msg string)
}

// LogFunc adapts a plain function to LogSink.
type LogFunc func(msg string)

// Log implements LogSink.
func (f LogFunc) Log(msg string) { f(msg) }

// WriterSink writes each message on its own line to w.
func WriterSink(w io.Writer) LogSink {
	return LogFunc(func(msg string) {
		_, _ = fmt.Fprintln(w, msg)
	})
}

// StdoutSink is the default sink.
func StdoutSink() LogSink {
	return WriterSink(os.Stdout)
}

// ZapSink forwards status lines to a structured logger at info level.
func ZapSink(logger *zap.Logger) LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return LogFunc(func(msg string) {
		logger.Info(msg)
	})
}
