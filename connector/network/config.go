package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ethereum/go-ethereum/common"
)

var ErrZeroToken = errors.New("token address must not be zero")

// Loader specifies how to load the network config
type Loader interface {
	Load(ctx context.Context) (*Config, error)
}

// Config configures the target network, the faucet contract on it, and the tokens it hands out.
type Config struct {
	Network Network `yaml:"network" toml:"network" json:"network"`

	// FaucetContract may be left empty, which disables token requests.
	FaucetContract common.Address `yaml:"faucet_contract,omitempty" toml:"faucet_contract,omitempty" json:"faucetContract"`

	Tokens []common.Address `yaml:"tokens,omitempty" toml:"tokens,omitempty" json:"tokens"`
}

var _ Loader = (*Config)(nil)

// DefaultTokens are the test tokens the BSC testnet faucet hands out.
var DefaultTokens = []common.Address{
	common.HexToAddress("0xf0dEDda1ecbEf742AA3DaE9c8D35E7fCb7fC3Ef6"),
	common.HexToAddress("0x4c30FBf082BaD0938e33802651058Ee6aab8bC9e"),
	common.HexToAddress("0x1d75aa0A3BCe3feC08FF30d68CeeC0112DF066E4"),
	common.HexToAddress("0x665aE6c8B332cCE9B1B50d9B2c79d1731516d2fB"),
	common.HexToAddress("0x2F02f77c2bA5A7cE4924f2a1E5Ecc85580fDD096"),
}

func DefaultConfig() *Config {
	return &Config{
		Network: BSCTestnet(),
		Tokens:  append([]common.Address(nil), DefaultTokens...),
	}
}

// Load is implemented on the Config itself,
// so that a static already-instantiated config can be used for in-process service setup,
// to bypass the file loading.
func (c *Config) Load(ctx context.Context) (*Config, error) {
	return c, nil
}

func (c *Config) Check() error {
	var result error
	if err := c.Network.Check(); err != nil {
		result = errors.Join(result, fmt.Errorf("invalid network: %w", err))
	}
	for i, tok := range c.Tokens {
		if tok == (common.Address{}) {
			result = errors.Join(result, fmt.Errorf("token %d: %w", i, ErrZeroToken))
		}
	}
	return result
}

// HasToken reports whether the token is one of the configured faucet tokens.
func (c *Config) HasToken(addr common.Address) bool {
	for _, tok := range c.Tokens {
		if tok == addr {
			return true
		}
	}
	return false
}

// FileLoader reads the config from a YAML or TOML file, picked by file extension.
// Decoding is strict: unknown fields are rejected.
type FileLoader struct {
	Path string
}

var _ Loader = (*FileLoader)(nil)

func (l *FileLoader) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(l.Path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode yaml config: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode toml config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to decode toml config: unknown fields %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	return &cfg, nil
}
