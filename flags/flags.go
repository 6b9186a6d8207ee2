package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tokenfaucet/faucet-connector/config"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	fcservice "github.com/tokenfaucet/faucet-connector/fc-service"
	fclog "github.com/tokenfaucet/faucet-connector/fc-service/log"
	fcmetrics "github.com/tokenfaucet/faucet-connector/fc-service/metrics"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	fcrpc "github.com/tokenfaucet/faucet-connector/fc-service/rpc"
)

const EnvVarPrefix = "FAUCET_CONNECTOR"

func prefixEnvVars(name string) []string {
	return fcservice.PrefixEnvVar(EnvVarPrefix, name)
}

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Network and faucet configuration file (.yaml, .yml or .toml). The BSC testnet defaults apply when empty.",
		EnvVars: prefixEnvVars("CONFIG"),
	}
	WalletEndpointFlag = &cli.StringFlag{
		Name:    "wallet.endpoint",
		Usage:   "JSON-RPC endpoint of the wallet to synchronize with (http, ws or ipc)",
		EnvVars: prefixEnvVars("WALLET_ENDPOINT"),
	}
	WalletPollIntervalFlag = &cli.DurationFlag{
		Name:    "wallet.poll-interval",
		Usage:   "Interval to poll the wallet for account and chain changes, when it does not support subscriptions",
		EnvVars: prefixEnvVars("WALLET_POLL_INTERVAL"),
		Value:   provider.DefaultPollInterval,
	}
	LocalWalletKeyFlag = &cli.StringFlag{
		Name:    "wallet.local-key",
		Usage:   "Hex private key of an in-process development wallet, used instead of a wallet endpoint",
		EnvVars: prefixEnvVars("WALLET_LOCAL_KEY"),
	}
	LocalWalletConnectedFlag = &cli.BoolFlag{
		Name:    "wallet.local-connected",
		Usage:   "Expose the in-process wallet account from the start, without a connect request",
		EnvVars: prefixEnvVars("WALLET_LOCAL_CONNECTED"),
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	ConfigFlag,
	WalletEndpointFlag,
	WalletPollIntervalFlag,
	LocalWalletKeyFlag,
	LocalWalletConnectedFlag,
}

func init() {
	optionalFlags = append(optionalFlags, fcrpc.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, fclog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, fcmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(Flags, requiredFlags...)
	Flags = append(Flags, optionalFlags...)
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

func ConfigFromCLI(ctx *cli.Context, version string) *config.Config {
	var loader network.Loader = network.DefaultConfig()
	if path := ctx.String(ConfigFlag.Name); path != "" {
		loader = &network.FileLoader{Path: path}
	}
	return &config.Config{
		Version:       version,
		LogConfig:     fclog.ReadCLIConfig(ctx),
		MetricsConfig: fcmetrics.ReadCLIConfig(ctx),
		RPC:           fcrpc.ReadCLIConfig(ctx),
		Wallet: config.WalletConfig{
			Endpoint:       ctx.String(WalletEndpointFlag.Name),
			PollInterval:   ctx.Duration(WalletPollIntervalFlag.Name),
			LocalKey:       ctx.String(LocalWalletKeyFlag.Name),
			LocalConnected: ctx.Bool(LocalWalletConnectedFlag.Name),
		},
		Connector: loader,
	}
}
