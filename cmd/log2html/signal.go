package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context canceled when one of shutdownSignals is
// received. Call stop() to release resources. Watch mode relies on it to
// exit its event loop cleanly.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
