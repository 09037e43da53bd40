package browser

import (
	"context"
)

// combineContext derives a context from primary (which carries the CDP
// target information) that is additionally canceled when secondary is. This
// lets an operation honor a per-request deadline without losing the
// connection values held by the session context.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
