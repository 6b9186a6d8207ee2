package provider

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/fc-service/locks"
)

// NodeClient is the chain access the local wallet needs to answer requests.
// It is implemented by ethclient.Client, and by the go-ethereum simulated backend client.
type NodeClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// DialFunc connects to the node RPC of a chain.
type DialFunc func(ctx context.Context, rpcURL string) (NodeClient, error)

func DialEthClient(ctx context.Context, rpcURL string) (NodeClient, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

const defaultClientCacheSize = 8

type LocalWalletConfig struct {
	// Key signs transactions. Without a key the wallet exposes no accounts.
	Key *ecdsa.PrivateKey
	// Connected exposes the account from the start, as if access was granted before.
	Connected bool
	// Chains the wallet knows. The first one is active.
	Chains []AddEthereumChainParameter
	// Dial defaults to DialEthClient.
	Dial DialFunc
	// ClientCacheSize bounds the number of open node connections.
	ClientCacheSize int
}

type listener struct {
	ev Event
	h  Handler
}

type notification struct {
	ev      Event
	payload any
}

// LocalWallet is an in-process development wallet holding a single account.
// It answers the wallet methods from its own state and a node connection per chain,
// and delivers notifications synchronously, after the state change that caused them.
type LocalWallet struct {
	log     log.Logger
	key     *ecdsa.PrivateKey
	account common.Address
	dial    DialFunc

	mu        sync.Mutex
	connected bool
	active    hexutil.Uint64
	chains    map[hexutil.Uint64]AddEthereumChainParameter

	clients *lru.Cache[hexutil.Uint64, NodeClient]

	assets       locks.RWMap[common.Address, AssetOptions]
	listeners    locks.RWMap[uint64, listener]
	nextListener atomic.Uint64
	closed       atomic.Bool
}

var _ Provider = (*LocalWallet)(nil)

func NewLocalWallet(logger log.Logger, cfg LocalWalletConfig) (*LocalWallet, error) {
	if len(cfg.Chains) == 0 {
		return nil, errors.New("local wallet needs at least one chain")
	}
	dial := cfg.Dial
	if dial == nil {
		dial = DialEthClient
	}
	size := cfg.ClientCacheSize
	if size <= 0 {
		size = defaultClientCacheSize
	}
	clients, err := lru.NewWithEvict[hexutil.Uint64, NodeClient](size, func(_ hexutil.Uint64, c NodeClient) {
		closeClient(c)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client cache: %w", err)
	}
	w := &LocalWallet{
		log:       logger,
		key:       cfg.Key,
		dial:      dial,
		connected: cfg.Connected,
		active:    cfg.Chains[0].ChainID,
		chains:    make(map[hexutil.Uint64]AddEthereumChainParameter, len(cfg.Chains)),
		clients:   clients,
	}
	if cfg.Key != nil {
		w.account = crypto.PubkeyToAddress(cfg.Key.PublicKey)
	}
	for _, c := range cfg.Chains {
		w.chains[c.ChainID] = c
	}
	return w, nil
}

func closeClient(c NodeClient) {
	if cl, ok := c.(interface{ Close() }); ok {
		cl.Close()
	}
}

// Account returns the address of the wallet key, or the zero address without a key.
func (w *LocalWallet) Account() common.Address {
	return w.account
}

// Assets lists the tokens registered through wallet_watchAsset.
func (w *LocalWallet) Assets() []AssetOptions {
	return w.assets.Values()
}

// ListenerCount returns the number of registered listeners for the event.
func (w *LocalWallet) ListenerCount(ev Event) int {
	n := 0
	for _, l := range w.listeners.Values() {
		if l.ev == ev {
			n++
		}
	}
	return n
}

// Disconnect revokes account access, like a user disconnecting the site in the wallet UI.
func (w *LocalWallet) Disconnect() {
	w.mu.Lock()
	changed := w.connected
	w.connected = false
	w.mu.Unlock()
	if changed {
		w.emit(notification{ev: AccountsChanged, payload: []common.Address{}})
	}
}

func (w *LocalWallet) On(ev Event, h Handler) (Disposer, error) {
	if !ev.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev)
	}
	id := w.nextListener.Add(1)
	w.listeners.Set(id, listener{ev: ev, h: h})
	var once sync.Once
	return func() {
		once.Do(func() { w.listeners.Delete(id) })
	}, nil
}

func (w *LocalWallet) Close() error {
	w.closed.Store(true)
	w.clients.Purge()
	return nil
}

func (w *LocalWallet) Request(ctx context.Context, result any, method string, params ...any) error {
	if w.closed.Load() {
		return errorf(CodeDisconnected, "wallet is closed")
	}
	var args []json.RawMessage
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return errorf(CodeInvalidParams, "failed to encode params: %v", err)
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorf(CodeInvalidParams, "failed to decode params: %v", err)
		}
	}
	out, notes, err := w.dispatch(ctx, method, args)
	if err != nil {
		return err
	}
	w.emit(notes...)
	if result == nil || out == nil {
		return nil
	}
	enc, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode %s result: %w", method, err)
	}
	return json.Unmarshal(enc, result)
}

func (w *LocalWallet) dispatch(ctx context.Context, method string, args []json.RawMessage) (any, []notification, error) {
	switch method {
	case "eth_accounts":
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.exposedAccounts(), nil, nil
	case "eth_requestAccounts":
		return w.requestAccounts()
	case "eth_chainId":
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.active, nil, nil
	case "eth_getBalance":
		var addr common.Address
		if err := decodeParam(args, 0, &addr); err != nil {
			return nil, nil, err
		}
		client, _, err := w.activeClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		bal, err := client.BalanceAt(ctx, addr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch balance: %w", err)
		}
		return (*hexutil.Big)(bal), nil, nil
	case "eth_getCode":
		var addr common.Address
		if err := decodeParam(args, 0, &addr); err != nil {
			return nil, nil, err
		}
		client, _, err := w.activeClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		code, err := client.CodeAt(ctx, addr, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch code: %w", err)
		}
		return hexutil.Bytes(code), nil, nil
	case "eth_call":
		var tx TransactionArgs
		if err := decodeParam(args, 0, &tx); err != nil {
			return nil, nil, err
		}
		client, _, err := w.activeClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		var from common.Address
		if tx.From != nil {
			from = *tx.From
		}
		res, err := client.CallContract(ctx, tx.callMsg(from), nil)
		if err != nil {
			return nil, nil, err
		}
		return hexutil.Bytes(res), nil, nil
	case "eth_sendTransaction":
		var tx TransactionArgs
		if err := decodeParam(args, 0, &tx); err != nil {
			return nil, nil, err
		}
		hash, err := w.sendTransaction(ctx, tx)
		if err != nil {
			return nil, nil, err
		}
		return hash, nil, nil
	case "wallet_addEthereumChain":
		var params AddEthereumChainParameter
		if err := decodeParam(args, 0, &params); err != nil {
			return nil, nil, err
		}
		notes, err := w.addChain(ctx, params)
		return nil, notes, err
	case "wallet_switchEthereumChain":
		var params SwitchEthereumChainParameter
		if err := decodeParam(args, 0, &params); err != nil {
			return nil, nil, err
		}
		w.mu.Lock()
		_, known := w.chains[params.ChainID]
		w.mu.Unlock()
		if !known {
			return nil, nil, errorf(CodeUnrecognizedChain, "unrecognized chain ID %s", params.ChainID)
		}
		return nil, w.switchTo(params.ChainID), nil
	case "wallet_watchAsset":
		var params WatchAssetParams
		if err := decodeParam(args, 0, &params); err != nil {
			return nil, nil, err
		}
		if params.Type != AssetTypeERC20 {
			return nil, nil, errorf(CodeInvalidParams, "unsupported asset type %q", params.Type)
		}
		if params.Options.Address == (common.Address{}) {
			return nil, nil, errorf(CodeInvalidParams, "asset address is required")
		}
		w.assets.Set(params.Options.Address, params.Options)
		w.log.Info("Watching asset", "address", params.Options.Address, "symbol", params.Options.Symbol)
		return true, nil, nil
	default:
		return nil, nil, errorf(CodeUnsupportedMethod, "method %s is not supported", method)
	}
}

// exposedAccounts must be called with mu held.
func (w *LocalWallet) exposedAccounts() []common.Address {
	if !w.connected || w.key == nil {
		return []common.Address{}
	}
	return []common.Address{w.account}
}

func (w *LocalWallet) requestAccounts() (any, []notification, error) {
	if w.key == nil {
		return nil, nil, errorf(CodeUserRejected, "no account available")
	}
	w.mu.Lock()
	changed := !w.connected
	w.connected = true
	accounts := w.exposedAccounts()
	w.mu.Unlock()
	var notes []notification
	if changed {
		w.log.Info("Granted account access", "account", w.account)
		notes = append(notes, notification{ev: AccountsChanged, payload: accounts})
	}
	return accounts, notes, nil
}

func (w *LocalWallet) addChain(ctx context.Context, params AddEthereumChainParameter) ([]notification, error) {
	if params.ChainID == 0 {
		return nil, errorf(CodeInvalidParams, "chainId is required")
	}
	if len(params.RPCURLs) == 0 {
		return nil, errorf(CodeInvalidParams, "rpcUrls is required")
	}
	w.mu.Lock()
	_, known := w.chains[params.ChainID]
	w.mu.Unlock()
	if !known {
		client, err := w.dial(ctx, params.RPCURLs[0])
		if err != nil {
			return nil, errorf(CodeInternalError, "failed to reach %s: %v", params.RPCURLs[0], err)
		}
		remote, err := client.ChainID(ctx)
		if err != nil {
			closeClient(client)
			return nil, errorf(CodeInternalError, "failed to read chain id from %s: %v", params.RPCURLs[0], err)
		}
		if !remote.IsUint64() || remote.Uint64() != uint64(params.ChainID) {
			closeClient(client)
			return nil, errorf(CodeInvalidParams, "rpc endpoint reports chain %s, expected %d", remote, uint64(params.ChainID))
		}
		w.clients.Add(params.ChainID, client)
		w.mu.Lock()
		w.chains[params.ChainID] = params
		w.mu.Unlock()
		w.log.Info("Added chain", "chain", params.ChainID, "name", params.ChainName)
	}
	return w.switchTo(params.ChainID), nil
}

func (w *LocalWallet) switchTo(id hexutil.Uint64) []notification {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.active == id {
		return nil
	}
	w.active = id
	w.log.Info("Switched chain", "chain", id)
	return []notification{{ev: ChainChanged, payload: id}}
}

func (w *LocalWallet) activeClient(ctx context.Context) (NodeClient, hexutil.Uint64, error) {
	w.mu.Lock()
	id := w.active
	params := w.chains[id]
	w.mu.Unlock()
	if c, ok := w.clients.Get(id); ok {
		return c, id, nil
	}
	if len(params.RPCURLs) == 0 {
		return nil, 0, errorf(CodeInternalError, "no RPC endpoint for chain %s", id)
	}
	c, err := w.dial(ctx, params.RPCURLs[0])
	if err != nil {
		return nil, 0, errorf(CodeInternalError, "failed to reach chain %s: %v", id, err)
	}
	if prev, ok, _ := w.clients.PeekOrAdd(id, c); ok {
		closeClient(c)
		return prev, id, nil
	}
	return c, id, nil
}

func (w *LocalWallet) sendTransaction(ctx context.Context, tx TransactionArgs) (common.Hash, error) {
	w.mu.Lock()
	connected := w.connected
	w.mu.Unlock()
	if w.key == nil || !connected {
		return common.Hash{}, errorf(CodeUnauthorized, "account is not connected")
	}
	if tx.From != nil && *tx.From != w.account {
		return common.Hash{}, errorf(CodeUnauthorized, "unknown sender %s", *tx.From)
	}
	client, chainID, err := w.activeClient(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	msg := tx.callMsg(w.account)
	nonce, err := client.PendingNonceAt(ctx, w.account)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gas := msg.Gas
	if gas == 0 {
		gas, err = client.EstimateGas(ctx, msg)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}
	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       tx.To,
		Value:    value,
		Data:     tx.Data,
	})
	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(uint64(chainID)))
	signed, err := types.SignTx(unsigned, signer, w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	w.log.Info("Sent transaction", "hash", signed.Hash(), "to", tx.To, "nonce", nonce, "gas", gas)
	return signed.Hash(), nil
}

func (w *LocalWallet) emit(notes ...notification) {
	for _, n := range notes {
		payload, err := json.Marshal(n.payload)
		if err != nil {
			w.log.Error("Failed to encode notification", "event", n.ev, "err", err)
			continue
		}
		for _, l := range w.listeners.Values() {
			if l.ev == n.ev {
				l.h(payload)
			}
		}
	}
}

func (a TransactionArgs) callMsg(from common.Address) ethereum.CallMsg {
	msg := ethereum.CallMsg{From: from, To: a.To, Data: a.Data}
	if a.Value != nil {
		msg.Value = a.Value.ToInt()
	}
	if a.Gas != nil {
		msg.Gas = uint64(*a.Gas)
	}
	return msg
}

func decodeParam(args []json.RawMessage, i int, dst any) error {
	if i >= len(args) {
		return errorf(CodeInvalidParams, "missing parameter %d", i)
	}
	if err := json.Unmarshal(args[i], dst); err != nil {
		return errorf(CodeInvalidParams, "invalid parameter %d: %v", i, err)
	}
	return nil
}
