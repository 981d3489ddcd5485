// File: main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/rp1/cmd"
)

var osExit = os.Exit

func main() {
	// SIGINT and SIGTERM cancel the context; retry loops and the browser session unwind from there.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		if errors.Is(err, context.Canceled) {
			// Interrupted by the user; the run was torn down cleanly.
			osExit(0)
			return
		}
		osExit(1)
	}
}
