// internal/browser/context_utils.go
package browser

import (
	"context"
	"errors"
)

// combineContext derives a context from pageCtx, which carries the CDP
// target, that also honors the deadline and cancellation of opCtx. The
// caller must call the returned cancel func.
//
// The deadline of opCtx is copied, so the combined context reports
// DeadlineExceeded on its own; only an explicit cancellation of opCtx is
// forwarded.
func combineContext(pageCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	var (
		combined context.Context
		cancel   context.CancelFunc
	)
	if deadline, ok := opCtx.Deadline(); ok {
		combined, cancel = context.WithDeadline(pageCtx, deadline)
	} else {
		combined, cancel = context.WithCancel(pageCtx)
	}
	if opCtx.Done() == nil {
		return combined, cancel
	}
	stop := context.AfterFunc(opCtx, func() {
		if errors.Is(opCtx.Err(), context.Canceled) {
			cancel()
		}
	})
	return combined, func() {
		stop()
		cancel()
	}
}
