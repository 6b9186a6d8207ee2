package cliapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tokenfaucet/faucet-connector/fc-service/ctxinterrupt"
)

type Lifecycle interface {
	// Start starts a service. A service only fully starts once. Subsequent starts may return an error.
	// A context is provided to end the service during setup.
	// The caller should call Stop to clean up after failing to start.
	Start(ctx context.Context) error
	// Stop stops a service gracefully.
	// The provided ctx can force an accelerated shutdown,
	// but the node still has to completely stop.
	Stop(ctx context.Context) error
	// Stopped determines if the service was stopped with Stop.
	Stopped() bool
}

// LifecycleAction instantiates a Lifecycle based on a CLI context.
// The close argument can be called by the lifecycle itself, to request the app to shut down.
type LifecycleAction func(ctx *cli.Context, close context.CancelCauseFunc) (Lifecycle, error)

var interruptErr = errors.New("interrupt signal")

// LifecycleCmd turns a LifecycleAction into a CLI action.
// The app context is cancelled on interrupt, which starts a graceful stop.
// A second interrupt during the stop cancels the stop context, to force the shutdown.
func LifecycleCmd(fn LifecycleAction) cli.ActionFunc {
	return func(cliCtx *cli.Context) error {
		hostCtx := cliCtx.Context
		appCtx, appCancel := context.WithCancelCause(hostCtx)
		cliCtx.Context = appCtx

		appLifecycle, err := fn(cliCtx, appCancel)
		if err != nil {
			return errors.Join(
				fmt.Errorf("failed to setup: %w", err),
				context.Cause(appCtx),
			)
		}

		if err := appLifecycle.Start(appCtx); err != nil {
			stopErr := appLifecycle.Stop(context.Background())
			return errors.Join(fmt.Errorf("failed to start: %w", err), stopErr)
		}

		<-appCtx.Done()

		stopCtx, stopCancel := context.WithCancelCause(context.Background())
		go func() {
			if err := ctxinterrupt.Wait(stopCtx); err == nil {
				stopCancel(interruptErr)
			}
		}()
		stopErr := appLifecycle.Stop(stopCtx)
		stopCancel(nil)
		if stopErr != nil && !errors.Is(context.Cause(stopCtx), interruptErr) {
			return fmt.Errorf("failed to stop: %w", stopErr)
		}
		return nil
	}
}
