// Package ctxinterrupt ties context cancellation to process interrupt signals.
package ctxinterrupt

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var DefaultInterruptSignals = []os.Signal{
	os.Interrupt,
	os.Kill,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// WithSignalWaiterMain returns a context that is cancelled on the first interrupt signal.
// The cancel cause carries the received signal.
func WithSignalWaiterMain(parent context.Context) context.Context {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, DefaultInterruptSignals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			cancel(fmt.Errorf("received interrupt signal %v", sig))
		case <-ctx.Done():
		}
	}()
	return ctx
}

// Wait blocks until the next interrupt signal, or until ctx is done.
func Wait(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, DefaultInterruptSignals...)
	defer signal.Stop(ch)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
