// Package network describes the chain the connector steers the wallet to,
// and the faucet deployed on it.
package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
)

var (
	ErrMissingChainID   = errors.New("missing chain id")
	ErrMissingChainName = errors.New("missing chain name")
	ErrMissingCurrency  = errors.New("missing native currency symbol")
	ErrMissingRPCURL    = errors.New("missing rpc url")
)

type NativeCurrency struct {
	Name     string `yaml:"name" toml:"name" json:"name"`
	Symbol   string `yaml:"symbol" toml:"symbol" json:"symbol"`
	Decimals uint8  `yaml:"decimals" toml:"decimals" json:"decimals"`
}

// Network holds the wallet_addEthereumChain parameters of the target chain.
type Network struct {
	ChainID           uint64         `yaml:"chain_id" toml:"chain_id" json:"chainId"`
	ChainName         string         `yaml:"chain_name" toml:"chain_name" json:"chainName"`
	NativeCurrency    NativeCurrency `yaml:"native_currency" toml:"native_currency" json:"nativeCurrency"`
	RPCURLs           []string       `yaml:"rpc_urls" toml:"rpc_urls" json:"rpcUrls"`
	BlockExplorerURLs []string       `yaml:"block_explorer_urls,omitempty" toml:"block_explorer_urls,omitempty" json:"blockExplorerUrls,omitempty"`
}

const BSCTestnetChainID = 97

func BSCTestnet() Network {
	return Network{
		ChainID:   BSCTestnetChainID,
		ChainName: "Binance Smart Chain Testnet",
		NativeCurrency: NativeCurrency{
			Name:     "BNB",
			Symbol:   "BNB",
			Decimals: 18,
		},
		RPCURLs:           []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
		BlockExplorerURLs: []string{"https://testnet.bscscan.com/"},
	}
}

// HexChainID is the chain id the way wallets report it.
func (n Network) HexChainID() hexutil.Uint64 {
	return hexutil.Uint64(n.ChainID)
}

func (n Network) AddChainParams() provider.AddEthereumChainParameter {
	return provider.AddEthereumChainParameter{
		ChainID:   n.HexChainID(),
		ChainName: n.ChainName,
		NativeCurrency: provider.NativeCurrency{
			Name:     n.NativeCurrency.Name,
			Symbol:   n.NativeCurrency.Symbol,
			Decimals: n.NativeCurrency.Decimals,
		},
		RPCURLs:           append([]string(nil), n.RPCURLs...),
		BlockExplorerURLs: append([]string(nil), n.BlockExplorerURLs...),
	}
}

// AccountURL links to the account on the first block explorer, or returns an empty string without one.
func (n Network) AccountURL(addr common.Address) string {
	if len(n.BlockExplorerURLs) == 0 {
		return ""
	}
	return strings.TrimSuffix(n.BlockExplorerURLs[0], "/") + "/address/" + addr.Hex()
}

func (n Network) Check() error {
	var result error
	if n.ChainID == 0 {
		result = errors.Join(result, ErrMissingChainID)
	}
	if n.ChainName == "" {
		result = errors.Join(result, ErrMissingChainName)
	}
	if n.NativeCurrency.Symbol == "" {
		result = errors.Join(result, ErrMissingCurrency)
	}
	if len(n.RPCURLs) == 0 {
		result = errors.Join(result, ErrMissingRPCURL)
	}
	for _, u := range n.RPCURLs {
		if err := checkURL(u, "http", "https", "ws", "wss"); err != nil {
			result = errors.Join(result, fmt.Errorf("invalid rpc url: %w", err))
		}
	}
	for _, u := range n.BlockExplorerURLs {
		if err := checkURL(u, "http", "https"); err != nil {
			result = errors.Join(result, fmt.Errorf("invalid block explorer url: %w", err))
		}
	}
	return result
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be an absolute %s url", raw, strings.Join(schemes, "/"))
}
