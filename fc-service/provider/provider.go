// Package provider defines the wallet provider surface: JSON-RPC style requests,
// plus accountsChanged and chainChanged notifications.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
)

// Event names a wallet notification.
type Event string

const (
	AccountsChanged Event = "accountsChanged"
	ChainChanged    Event = "chainChanged"
)

func (e Event) Valid() bool {
	return e == AccountsChanged || e == ChainChanged
}

var (
	ErrNoProvider       = errors.New("no wallet provider detected")
	ErrUnsupportedEvent = errors.New("unsupported provider event")
)

// Handler receives the JSON payload of a notification.
// accountsChanged carries a list of addresses, chainChanged a hex chain id.
type Handler func(payload json.RawMessage)

// Disposer removes a registered listener. Calling it more than once has no further effect.
type Disposer func()

// Provider is an injected wallet handle.
type Provider interface {
	// Request performs a wallet method call, and decodes the JSON result into result, if not nil.
	Request(ctx context.Context, result any, method string, params ...any) error
	// On registers a listener for the event. The returned disposer removes exactly that listener.
	On(ev Event, h Handler) (Disposer, error)
	// Close releases the connection to the wallet.
	Close() error
}

// Detector finds the wallet provider. It returns ErrNoProvider when no wallet answers.
type Detector interface {
	Detect(ctx context.Context) (Provider, error)
}

type DetectorFunc func(ctx context.Context) (Provider, error)

func (fn DetectorFunc) Detect(ctx context.Context) (Provider, error) {
	return fn(ctx)
}

// Static always detects the given provider, or no provider if nil.
func Static(p Provider) Detector {
	return DetectorFunc(func(ctx context.Context) (Provider, error) {
		if p == nil {
			return nil, ErrNoProvider
		}
		return p, nil
	})
}

// AddEthereumChainParameter is the wallet_addEthereumChain payload.
type AddEthereumChainParameter struct {
	ChainID           hexutil.Uint64 `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type SwitchEthereumChainParameter struct {
	ChainID hexutil.Uint64 `json:"chainId"`
}

// AssetTypeERC20 is the only asset type wallets accept in wallet_watchAsset.
const AssetTypeERC20 = "ERC20"

// WatchAssetParams is the wallet_watchAsset payload.
type WatchAssetParams struct {
	Type    string       `json:"type"`
	Options AssetOptions `json:"options"`
}

type AssetOptions struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol,omitempty"`
	Decimals uint8          `json:"decimals,omitempty"`
	Image    string         `json:"image,omitempty"`
}

// TransactionArgs is the eth_sendTransaction and eth_call payload.
type TransactionArgs struct {
	From  *common.Address `json:"from,omitempty"`
	To    *common.Address `json:"to,omitempty"`
	Gas   *hexutil.Uint64 `json:"gas,omitempty"`
	Value *hexutil.Big    `json:"value,omitempty"`
	Data  hexutil.Bytes   `json:"data,omitempty"`
}

// Accounts returns the accounts the wallet currently exposes. Empty means disconnected.
func Accounts(ctx context.Context, p Provider) ([]common.Address, error) {
	var out []common.Address
	if err := p.Request(ctx, &out, "eth_accounts"); err != nil {
		return nil, err
	}
	return out, nil
}

// RequestAccounts asks the wallet for account access, which may prompt the user.
func RequestAccounts(ctx context.Context, p Provider) ([]common.Address, error) {
	var out []common.Address
	if err := p.Request(ctx, &out, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainID reads the active chain id of the wallet.
func ChainID(ctx context.Context, p Provider) (hexutil.Uint64, error) {
	var raw string
	if err := p.Request(ctx, &raw, "eth_chainId"); err != nil {
		return 0, err
	}
	return eth.ParseChainID(raw)
}

// Balance returns the native balance of the account, at the latest block.
func Balance(ctx context.Context, p Provider, account common.Address) (*big.Int, error) {
	var out hexutil.Big
	if err := p.Request(ctx, &out, "eth_getBalance", account, "latest"); err != nil {
		return nil, err
	}
	return out.ToInt(), nil
}

// AddChain asks the wallet to add the chain, and switch to it.
func AddChain(ctx context.Context, p Provider, params AddEthereumChainParameter) error {
	return p.Request(ctx, nil, "wallet_addEthereumChain", params)
}

// WatchAsset asks the wallet to track the token. It reports whether the wallet accepted it.
func WatchAsset(ctx context.Context, p Provider, params WatchAssetParams) (bool, error) {
	var ok bool
	if err := p.Request(ctx, &ok, "wallet_watchAsset", params); err != nil {
		return false, err
	}
	return ok, nil
}

// SendTransaction has the wallet sign and submit a transaction from one of its accounts.
func SendTransaction(ctx context.Context, p Provider, args TransactionArgs) (common.Hash, error) {
	var hash common.Hash
	if err := p.Request(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// DecodeAccounts reads an accountsChanged payload.
func DecodeAccounts(payload json.RawMessage) ([]common.Address, error) {
	var out []common.Address
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("invalid accounts payload: %w", err)
	}
	return out, nil
}

// DecodeChainID reads a chainChanged payload.
func DecodeChainID(payload json.RawMessage) (hexutil.Uint64, error) {
	var raw string
	if err := json.Unmarshal(payload, &raw); err != nil {
		return 0, fmt.Errorf("invalid chain id payload: %w", err)
	}
	return eth.ParseChainID(raw)
}
