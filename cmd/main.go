package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/config"
	"github.com/tokenfaucet/faucet-connector/connector"
	fcservice "github.com/tokenfaucet/faucet-connector/fc-service"
	"github.com/tokenfaucet/faucet-connector/fc-service/cliapp"
	"github.com/tokenfaucet/faucet-connector/fc-service/ctxinterrupt"
	fclog "github.com/tokenfaucet/faucet-connector/fc-service/log"
	"github.com/tokenfaucet/faucet-connector/fc-service/metrics/doc"
	"github.com/tokenfaucet/faucet-connector/flags"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

var (
	Version   = "v0.0.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	ctx := ctxinterrupt.WithSignalWaiterMain(context.Background())
	err := run(ctx, os.Stdout, os.Stderr, os.Args, fromConfig)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx context.Context, w io.Writer, ew io.Writer, args []string, fn connector.MainFn) error {
	fclog.SetupDefaults()

	app := cli.NewApp()
	app.Writer = w
	app.ErrWriter = ew
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Version = fcservice.FormatVersion(Version, GitCommit, GitDate, "")
	app.Name = "faucet-connector"
	app.Usage = "faucet-connector keeps a wallet session in sync and runs faucet actions through the wallet."
	app.Description = "Wallet faucet connector.\n" +
		" Run without a subcommand to serve the wallet_ and faucet_ JSON-RPC namespaces,\n" +
		" or use the client subcommands against a running connector."
	app.Action = cliapp.LifecycleCmd(connector.Main(app.Version, fn))
	app.Commands = []*cli.Command{
		{
			Name:        "doc",
			Subcommands: doc.NewSubcommands(metrics.NewMetrics("default")),
		},
	}
	app.Commands = append(app.Commands, clientCommands()...)
	return app.RunContext(ctx, args)
}

func fromConfig(ctx context.Context, cfg *config.Config, logger log.Logger) (cliapp.Lifecycle, error) {
	return connector.FromConfig(ctx, cfg, logger)
}
