package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/tokenfaucet/faucet-connector/connector/network"
	fclog "github.com/tokenfaucet/faucet-connector/fc-service/log"
	fcmetrics "github.com/tokenfaucet/faucet-connector/fc-service/metrics"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	fcrpc "github.com/tokenfaucet/faucet-connector/fc-service/rpc"
)

var (
	ErrConflictingWallets  = errors.New("wallet endpoint and local wallet key are mutually exclusive")
	ErrInvalidPollInterval = errors.New("wallet poll interval must be positive")
)

// WalletConfig selects the wallet the connector synchronizes with:
// a remote wallet at Endpoint, or the in-process wallet when LocalKey is set.
// With neither, the connector runs without a provider.
type WalletConfig struct {
	Endpoint     string
	PollInterval time.Duration

	// LocalKey is a hex private key.
	LocalKey string
	// LocalConnected exposes the local account from the start, as if access was granted before.
	LocalConnected bool
}

func (c WalletConfig) Check() error {
	var result error
	if c.Endpoint != "" && c.LocalKey != "" {
		result = errors.Join(result, ErrConflictingWallets)
	}
	if c.PollInterval <= 0 {
		result = errors.Join(result, ErrInvalidPollInterval)
	}
	if c.LocalKey != "" {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(c.LocalKey, "0x")); err != nil {
			result = errors.Join(result, fmt.Errorf("invalid local wallet key: %w", err))
		}
	}
	return result
}

type Config struct {
	Version string

	LogConfig     fclog.CLIConfig
	MetricsConfig fcmetrics.CLIConfig
	RPC           fcrpc.CLIConfig

	Wallet WalletConfig

	Connector network.Loader
}

func (c *Config) Check() error {
	var result error
	result = errors.Join(result, c.LogConfig.Check())
	result = errors.Join(result, c.MetricsConfig.Check())
	result = errors.Join(result, c.RPC.Check())
	result = errors.Join(result, c.Wallet.Check())
	if c.Connector == nil {
		result = errors.Join(result, errors.New("missing connector config"))
	}
	return result
}

func DefaultCLIConfig() *Config {
	return &Config{
		Version:       "dev",
		LogConfig:     fclog.DefaultCLIConfig(),
		MetricsConfig: fcmetrics.DefaultCLIConfig(),
		RPC:           fcrpc.DefaultCLIConfig(),
		Wallet: WalletConfig{
			PollInterval: provider.DefaultPollInterval,
		},
		Connector: network.DefaultConfig(),
	}
}
