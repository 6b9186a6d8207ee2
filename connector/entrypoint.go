package connector

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/config"
	"github.com/tokenfaucet/faucet-connector/fc-service/cliapp"
	fclog "github.com/tokenfaucet/faucet-connector/fc-service/log"
	"github.com/tokenfaucet/faucet-connector/flags"
)

type MainFn func(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error)

// Main is the entrypoint into the service.
// This method returns a cliapp.LifecycleAction, to create a CLI-lifecycle-managed service with.
func Main(version string, fn MainFn) cliapp.LifecycleAction {
	return func(cliCtx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		if err := flags.CheckRequired(cliCtx); err != nil {
			return nil, err
		}
		cfg := flags.ConfigFromCLI(cliCtx, version)
		if err := cfg.Check(); err != nil {
			return nil, fmt.Errorf("invalid CLI flags: %w", err)
		}

		l := fclog.NewLogger(cliCtx.App.Writer, cfg.LogConfig)
		l.Info("Initializing faucet-connector")
		return fn(cliCtx.Context, cfg, l)
	}
}
