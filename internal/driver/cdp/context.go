// File: internal/driver/cdp/context.go
package cdp

import (
	"context"
)

// CombineContext returns a context derived from tabCtx, so it keeps the CDP
// target values chromedp needs, that is also cancelled when opCtx is done.
// The caller must call the returned cancel function.
func CombineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)
	if deadline, ok := opCtx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}

	stop := context.AfterFunc(opCtx, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}
