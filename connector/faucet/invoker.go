// Package faucet holds the faucet panel actions, layered on top of a wallet session.
package faucet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/bindings"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

var (
	ErrNotConnected     = errors.New("no wallet account connected")
	ErrNoFaucetContract = errors.New("no faucet contract configured")
	ErrInvalidToken     = errors.New("invalid token address")
	ErrWrongNetwork     = session.ErrWrongNetwork
)

const (
	ActionWatchAsset   = "watchAsset"
	ActionRequestToken = "requestToken"
	ActionTokenBalance = "tokenBalance"
)

// Selection is the panel input state.
type Selection struct {
	Token  string          `json:"token"`
	Amount uint64          `json:"amount"`
	Signer *common.Address `json:"signer,omitempty"`
}

// Invoker runs the faucet actions through the wallet the session was derived from.
// Provider calls are made without holding the lock, since wallets may notify synchronously.
type Invoker struct {
	log    log.Logger
	m      metrics.Metricer
	target network.Network
	faucet common.Address
	abi    abi.ABI

	mu     sync.Mutex
	token  string
	amount uint64
	p      provider.Provider
	signer *common.Address
	caller *bindings.FaucetCaller
}

func NewInvoker(logger log.Logger, target network.Network, faucetAddr common.Address, m metrics.Metricer) (*Invoker, error) {
	parsed, err := abi.JSON(strings.NewReader(bindings.FaucetABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse faucet ABI: %w", err)
	}
	if faucetAddr == (common.Address{}) {
		logger.Warn("No faucet contract configured, token requests are disabled")
	}
	return &Invoker{
		log:    logger,
		m:      m,
		target: target,
		faucet: faucetAddr,
		abi:    parsed,
	}, nil
}

// Bind points the contract handle at the provider, with the first session account as signer.
// A nil provider unbinds.
func (i *Invoker) Bind(p provider.Provider, sess session.Session) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if p == nil {
		if i.p != nil {
			i.log.Info("Faucet contract unbound")
		}
		i.p, i.signer, i.caller = nil, nil, nil
		return
	}
	if i.p != p {
		caller, err := bindings.NewFaucetCaller(i.faucet, provider.NewContractCaller(p))
		if err != nil {
			i.log.Error("Failed to bind faucet contract", "err", err)
			return
		}
		i.p, i.caller = p, caller
	}
	account, ok := sess.Account()
	switch {
	case !ok && i.signer != nil:
		i.log.Info("Faucet signer removed")
		i.signer = nil
	case ok && (i.signer == nil || *i.signer != account):
		i.log.Info("Faucet signer bound", "signer", account, "chain", sess.ChainID)
		i.signer = &account
	}
}

// SelectToken records the chosen token. Any value is accepted.
func (i *Invoker) SelectToken(token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.token = token
	i.log.Debug("Token selected", "token", token)
}

// SetTokenAmount parses a base-10 amount. Input that is not a non-negative integer is ignored.
func (i *Invoker) SetTokenAmount(input string) bool {
	v, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
	if err != nil {
		i.log.Debug("Ignoring invalid token amount", "input", input)
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.amount = v
	return true
}

func (i *Invoker) Selection() Selection {
	i.mu.Lock()
	defer i.mu.Unlock()
	sel := Selection{Token: i.token, Amount: i.amount}
	if i.signer != nil {
		signer := *i.signer
		sel.Signer = &signer
	}
	return sel
}

// WatchAsset asks the wallet to display the token. The wallet is first steered to the target network,
// and the asset is only registered when the wallet then reports that network.
// An empty token means the selected one.
func (i *Invoker) WatchAsset(ctx context.Context, token string) (accepted bool, err error) {
	p, _, _, tok, err := i.prepare(token)
	if err != nil {
		return false, err
	}
	onDone := i.m.RecordFaucetAction(ActionWatchAsset, tok)
	defer func() { onDone(err) }()
	logger := i.log.New("action", ActionWatchAsset, "token", tok)

	if p == nil {
		logger.Warn("No wallet to watch asset with")
		return false, ErrNotConnected
	}
	if err := provider.AddChain(ctx, p, i.target.AddChainParams()); err != nil {
		logger.Warn("Wallet did not switch network", "err", err)
		return false, fmt.Errorf("failed to switch network: %w", err)
	}
	chainID, err := provider.ChainID(ctx, p)
	if err != nil {
		logger.Warn("Failed to read chain", "err", err)
		return false, fmt.Errorf("failed to read chain id: %w", err)
	}
	if chainID != i.target.HexChainID() {
		logger.Warn("Not watching asset on another network", "chain", chainID, "target", i.target.HexChainID())
		return false, fmt.Errorf("%w: wallet reports chain %s", ErrWrongNetwork, chainID)
	}
	accepted, err = provider.WatchAsset(ctx, p, provider.WatchAssetParams{
		Type:    provider.AssetTypeERC20,
		Options: provider.AssetOptions{Address: tok},
	})
	if err != nil {
		logger.Warn("Wallet rejected asset", "err", err)
		return false, fmt.Errorf("failed to watch asset: %w", err)
	}
	logger.Info("Asked wallet to watch asset", "accepted", accepted)
	return accepted, nil
}

// RequestToken submits requestToken(token) to the faucet contract from the bound signer.
// The transaction hash is returned as is: inclusion is left to the wallet and the contract.
func (i *Invoker) RequestToken(ctx context.Context, token string) (txHash common.Hash, err error) {
	p, signer, _, tok, err := i.prepare(token)
	if err != nil {
		return common.Hash{}, err
	}
	onDone := i.m.RecordFaucetAction(ActionRequestToken, tok)
	defer func() { onDone(err) }()
	logger := i.log.New("action", ActionRequestToken, "token", tok)

	if p == nil || signer == nil {
		logger.Warn("No connected account to request tokens with")
		return common.Hash{}, ErrNotConnected
	}
	if i.faucet == (common.Address{}) {
		logger.Warn("No faucet contract configured")
		return common.Hash{}, ErrNoFaucetContract
	}
	data, err := i.abi.Pack("requestToken", tok)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack requestToken call: %w", err)
	}
	faucet := i.faucet
	txHash, err = provider.SendTransaction(ctx, p, provider.TransactionArgs{
		From: signer,
		To:   &faucet,
		Data: data,
	})
	if err != nil {
		logger.Warn("Token request failed", "signer", *signer, "err", err)
		return common.Hash{}, fmt.Errorf("failed to request token: %w", err)
	}
	logger.Info("Requested tokens", "signer", *signer, "tx", txHash)
	return txHash, nil
}

// TokenBalance reads getTokenBalance(token) from the faucet contract.
func (i *Invoker) TokenBalance(ctx context.Context, token string) (bal *big.Int, err error) {
	p, signer, caller, tok, err := i.prepare(token)
	if err != nil {
		return nil, err
	}
	onDone := i.m.RecordFaucetAction(ActionTokenBalance, tok)
	defer func() { onDone(err) }()

	if p == nil {
		return nil, ErrNotConnected
	}
	if i.faucet == (common.Address{}) {
		return nil, ErrNoFaucetContract
	}
	opts := &bind.CallOpts{Context: ctx}
	if signer != nil {
		opts.From = *signer
	}
	bal, err = caller.GetTokenBalance(opts, tok)
	if err != nil {
		i.log.Warn("Failed to read faucet token balance", "token", tok, "err", err)
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	return bal, nil
}

func (i *Invoker) prepare(token string) (provider.Provider, *common.Address, *bindings.FaucetCaller, common.Address, error) {
	i.mu.Lock()
	p, caller := i.p, i.caller
	var signer *common.Address
	if i.signer != nil {
		s := *i.signer
		signer = &s
	}
	if token == "" {
		token = i.token
	}
	i.mu.Unlock()

	if !common.IsHexAddress(token) {
		i.log.Warn("Not a token address", "token", token)
		return nil, nil, nil, common.Address{}, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return p, signer, caller, common.HexToAddress(token), nil
}
