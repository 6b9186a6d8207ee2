package faucet

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/bindings"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	fcmetrics "github.com/tokenfaucet/faucet-connector/fc-service/metrics"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider/providertest"
	"github.com/tokenfaucet/faucet-connector/fc-service/testlog"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

var (
	faucetAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	signerAddr = common.HexToAddress("0xABC")
	tokenAddr  = network.DefaultTokens[0]
	txHash     = common.HexToHash("0x1234")
)

func newTestInvoker(t *testing.T, faucet common.Address, m metrics.Metricer) *Invoker {
	inv, err := NewInvoker(testlog.Logger(t, log.LevelDebug), network.BSCTestnet(), faucet, m)
	require.NoError(t, err)
	return inv
}

// newWallet scripts a wallet on the given chain. A switchable wallet moves to any chain it is asked to add.
func newWallet(chainID hexutil.Uint64, switchable bool) *providertest.Provider {
	p := providertest.New()
	p.Handle("eth_chainId", func([]any) (any, error) {
		return chainID, nil
	})
	p.Handle("wallet_addEthereumChain", func(params []any) (any, error) {
		if switchable {
			chainID = params[0].(provider.AddEthereumChainParameter).ChainID
		}
		return nil, nil
	})
	p.Return("wallet_watchAsset", true)
	p.Return("eth_sendTransaction", txHash)
	return p
}

func bound(inv *Invoker, p provider.Provider, accounts ...common.Address) {
	inv.Bind(p, session.Session{Accounts: accounts, ChainID: network.BSCTestnetChainID})
}

func TestSelection(t *testing.T) {
	inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})

	require.Equal(t, Selection{}, inv.Selection())

	inv.SelectToken("not-an-address")
	require.Equal(t, "not-an-address", inv.Selection().Token)
	inv.SelectToken(tokenAddr.Hex())
	require.Equal(t, tokenAddr.Hex(), inv.Selection().Token)

	require.True(t, inv.SetTokenAmount("25"))
	require.Equal(t, uint64(25), inv.Selection().Amount)
	require.True(t, inv.SetTokenAmount(" 7 "))
	require.Equal(t, uint64(7), inv.Selection().Amount)

	for _, input := range []string{"", "abc", "-3", "1.5", "0x10"} {
		require.False(t, inv.SetTokenAmount(input), input)
	}
	require.Equal(t, uint64(7), inv.Selection().Amount)
}

func TestBind(t *testing.T) {
	inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
	p := newWallet(97, true)

	bound(inv, p)
	require.Nil(t, inv.Selection().Signer)

	bound(inv, p, signerAddr, common.HexToAddress("0xDEF"))
	require.NotNil(t, inv.Selection().Signer)
	require.Equal(t, signerAddr, *inv.Selection().Signer)

	// accounts removed, provider kept
	bound(inv, p)
	require.Nil(t, inv.Selection().Signer)
	inv.mu.Lock()
	require.Same(t, p, inv.p)
	inv.mu.Unlock()

	inv.Bind(nil, session.Session{})
	inv.mu.Lock()
	require.Nil(t, inv.p)
	require.Nil(t, inv.caller)
	inv.mu.Unlock()
}

func TestWatchAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(1, true)
		bound(inv, p)

		accepted, err := inv.WatchAsset(ctx, tokenAddr.Hex())
		require.NoError(t, err)
		require.True(t, accepted)

		require.Equal(t, 1, p.Calls("wallet_addEthereumChain"))
		calls := p.Requests("wallet_watchAsset")
		require.Len(t, calls, 1)
		require.Equal(t, provider.WatchAssetParams{
			Type:    provider.AssetTypeERC20,
			Options: provider.AssetOptions{Address: tokenAddr},
		}, calls[0].Params[0])
	})

	t.Run("wrong network", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(1, false)
		bound(inv, p, signerAddr)

		accepted, err := inv.WatchAsset(ctx, tokenAddr.Hex())
		require.ErrorIs(t, err, ErrWrongNetwork)
		require.False(t, accepted)
		require.Zero(t, p.Calls("wallet_watchAsset"))
	})

	t.Run("switch rejected", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		p.Fail("wallet_addEthereumChain", &provider.RPCError{Code: provider.CodeUserRejected, Message: "rejected"})
		bound(inv, p)

		_, err := inv.WatchAsset(ctx, tokenAddr.Hex())
		var rerr *provider.RPCError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, provider.CodeUserRejected, rerr.Code)
		require.Zero(t, p.Calls("eth_chainId"))
		require.Zero(t, p.Calls("wallet_watchAsset"))
	})

	t.Run("declined", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		p.Return("wallet_watchAsset", false)
		bound(inv, p)

		accepted, err := inv.WatchAsset(ctx, tokenAddr.Hex())
		require.NoError(t, err)
		require.False(t, accepted)
	})

	t.Run("selected token", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		bound(inv, p)
		inv.SelectToken(network.DefaultTokens[2].Hex())

		_, err := inv.WatchAsset(ctx, "")
		require.NoError(t, err)
		calls := p.Requests("wallet_watchAsset")
		require.Len(t, calls, 1)
		require.Equal(t, network.DefaultTokens[2], calls[0].Params[0].(provider.WatchAssetParams).Options.Address)
	})

	t.Run("invalid token", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		bound(inv, p)
		inv.SelectToken("bnb")

		_, err := inv.WatchAsset(ctx, "")
		require.ErrorIs(t, err, ErrInvalidToken)
		require.Empty(t, p.CallLog())
	})

	t.Run("no wallet", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		_, err := inv.WatchAsset(ctx, tokenAddr.Hex())
		require.ErrorIs(t, err, ErrNotConnected)
	})
}

func TestRequestToken(t *testing.T) {
	ctx := context.Background()
	parsed, err := abi.JSON(strings.NewReader(bindings.FaucetABI))
	require.NoError(t, err)
	want, err := parsed.Pack("requestToken", tokenAddr)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		bound(inv, p, signerAddr)

		hash, err := inv.RequestToken(ctx, tokenAddr.Hex())
		require.NoError(t, err)
		require.Equal(t, txHash, hash)

		calls := p.Requests("eth_sendTransaction")
		require.Len(t, calls, 1)
		args := calls[0].Params[0].(provider.TransactionArgs)
		require.Equal(t, signerAddr, *args.From)
		require.Equal(t, faucetAddr, *args.To)
		require.Equal(t, hexutil.Bytes(want), args.Data)
	})

	t.Run("not connected", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		bound(inv, p)

		_, err := inv.RequestToken(ctx, tokenAddr.Hex())
		require.ErrorIs(t, err, ErrNotConnected)
		require.Empty(t, p.CallLog())
	})

	t.Run("no faucet contract", func(t *testing.T) {
		inv := newTestInvoker(t, common.Address{}, metrics.NoopMetrics{})
		p := newWallet(97, true)
		bound(inv, p, signerAddr)

		_, err := inv.RequestToken(ctx, tokenAddr.Hex())
		require.ErrorIs(t, err, ErrNoFaucetContract)
		require.Empty(t, p.CallLog())
	})

	t.Run("rejected", func(t *testing.T) {
		inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
		p := newWallet(97, true)
		p.Fail("eth_sendTransaction", &provider.RPCError{Code: provider.CodeUserRejected, Message: "user denied"})
		bound(inv, p, signerAddr)
		inv.SelectToken(tokenAddr.Hex())
		require.True(t, inv.SetTokenAmount("5"))

		_, err := inv.RequestToken(ctx, "")
		var rerr *provider.RPCError
		require.ErrorAs(t, err, &rerr)
		require.Equal(t, provider.CodeUserRejected, rerr.Code)
		require.Equal(t, Selection{Token: tokenAddr.Hex(), Amount: 5, Signer: &signerAddr}, inv.Selection())
	})
}

func TestTokenBalance(t *testing.T) {
	ctx := context.Background()
	parsed, err := abi.JSON(strings.NewReader(bindings.FaucetABI))
	require.NoError(t, err)
	out, err := parsed.Methods["getTokenBalance"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)
	in, err := parsed.Pack("getTokenBalance", tokenAddr)
	require.NoError(t, err)

	inv := newTestInvoker(t, faucetAddr, metrics.NoopMetrics{})
	p := newWallet(97, true)
	p.Handle("eth_call", func(params []any) (any, error) {
		args := params[0].(provider.TransactionArgs)
		if *args.To != faucetAddr || !bytes.Equal(args.Data, in) {
			return nil, errors.New("unexpected call")
		}
		return hexutil.Bytes(out), nil
	})
	bound(inv, p, signerAddr)

	bal, err := inv.TokenBalance(ctx, tokenAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), bal)

	p.Fail("eth_call", errors.New("execution reverted"))
	_, err = inv.TokenBalance(ctx, tokenAddr.Hex())
	require.ErrorContains(t, err, "execution reverted")
}

func TestFaucetActionMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewMetrics("")
	inv := newTestInvoker(t, faucetAddr, m)
	p := newWallet(1, false)
	bound(inv, p, signerAddr)

	_, err := inv.RequestToken(ctx, tokenAddr.Hex())
	require.NoError(t, err)
	_, err = inv.WatchAsset(ctx, tokenAddr.Hex())
	require.ErrorIs(t, err, ErrWrongNetwork)

	c := fcmetrics.NewMetricChecker(t, m.Registry())
	prefix := metrics.Namespace + "_default_"
	record := c.FindByName(prefix + "faucet_actions_total").FindByLabels(map[string]string{
		"action": ActionRequestToken,
		"token":  tokenAddr.Hex(),
		"err":    "success",
	})
	require.Equal(t, 1.0, record.Counter.GetValue())
	record = c.FindByName(prefix + "faucet_actions_total").FindByLabels(map[string]string{
		"action": ActionWatchAsset,
		"token":  tokenAddr.Hex(),
		"err":    "failed",
	})
	require.Equal(t, 1.0, record.Counter.GetValue())
}
