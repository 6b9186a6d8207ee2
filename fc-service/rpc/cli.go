package rpc

import (
	"errors"
	"math"

	"github.com/urfave/cli/v2"

	fcservice "github.com/tokenfaucet/faucet-connector/fc-service"
)

const (
	ListenAddrFlagName  = "rpc.addr"
	PortFlagName        = "rpc.port"
	CORSOriginsFlagName = "rpc.cors-origins"
	WSEnabledFlagName   = "rpc.ws"
)

func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    ListenAddrFlagName,
			Usage:   "RPC listening address",
			EnvVars: fcservice.PrefixEnvVar(envPrefix, "RPC_ADDR"),
			Value:   "0.0.0.0",
		},
		&cli.IntFlag{
			Name:    PortFlagName,
			Usage:   "RPC listening port",
			EnvVars: fcservice.PrefixEnvVar(envPrefix, "RPC_PORT"),
			Value:   8545,
		},
		&cli.StringSliceFlag{
			Name:    CORSOriginsFlagName,
			Usage:   "Origins allowed to make cross-origin requests to the RPC",
			EnvVars: fcservice.PrefixEnvVar(envPrefix, "RPC_CORS_ORIGINS"),
			Value:   cli.NewStringSlice("*"),
		},
		&cli.BoolFlag{
			Name:    WSEnabledFlagName,
			Usage:   "Serve websocket RPC, needed for session subscriptions",
			EnvVars: fcservice.PrefixEnvVar(envPrefix, "RPC_WS"),
			Value:   true,
		},
	}
}

type CLIConfig struct {
	ListenAddr  string
	ListenPort  int
	CORSOrigins []string
	WSEnabled   bool
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		ListenAddr:  "0.0.0.0",
		ListenPort:  8545,
		CORSOrigins: []string{"*"},
		WSEnabled:   true,
	}
}

func (c CLIConfig) Check() error {
	if c.ListenPort < 0 || c.ListenPort > math.MaxUint16 {
		return errors.New("invalid RPC port")
	}
	return nil
}

func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	return CLIConfig{
		ListenAddr:  ctx.String(ListenAddrFlagName),
		ListenPort:  ctx.Int(PortFlagName),
		CORSOrigins: ctx.StringSlice(CORSOriginsFlagName),
		WSEnabled:   ctx.Bool(WSEnabledFlagName),
	}
}
