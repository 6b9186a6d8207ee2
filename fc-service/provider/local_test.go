package provider

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
	"github.com/tokenfaucet/faucet-connector/fc-service/testlog"
)

const simChainID = 1337

var errUnreachable = errors.New("unreachable")

// fakeNode is a node of another chain, with fixed balances.
type fakeNode struct {
	chainID  uint64
	balances map[common.Address]*big.Int
	closed   bool
}

func (n *fakeNode) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(n.chainID), nil
}

func (n *fakeNode) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	if b, ok := n.balances[account]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (n *fakeNode) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func (n *fakeNode) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, errUnreachable
}

func (n *fakeNode) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, errUnreachable
}

func (n *fakeNode) SuggestGasPrice(context.Context) (*big.Int, error) {
	return nil, errUnreachable
}

func (n *fakeNode) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 0, errUnreachable
}

func (n *fakeNode) SendTransaction(context.Context, *types.Transaction) error {
	return errUnreachable
}

func (n *fakeNode) Close() {
	n.closed = true
}

type walletHarness struct {
	wallet  *LocalWallet
	backend *simulated.Backend
	bsc     *fakeNode

	mu     sync.Mutex
	events map[Event][]json.RawMessage
}

func (h *walletHarness) record(ev Event) Handler {
	return func(payload json.RawMessage) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events[ev] = append(h.events[ev], payload)
	}
}

func (h *walletHarness) received(ev Event) []json.RawMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]json.RawMessage(nil), h.events[ev]...)
}

func simChain() AddEthereumChainParameter {
	return AddEthereumChainParameter{
		ChainID:        simChainID,
		ChainName:      "Simulated",
		NativeCurrency: NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		RPCURLs:        []string{"sim://1337"},
	}
}

func bscChain() AddEthereumChainParameter {
	return AddEthereumChainParameter{
		ChainID:        97,
		ChainName:      "Binance Smart Chain Testnet",
		NativeCurrency: NativeCurrency{Name: "BNB", Symbol: "BNB", Decimals: 18},
		RPCURLs:        []string{"fake://97"},
	}
}

func newWalletHarness(t *testing.T, connected bool) *walletHarness {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	backend := simulated.NewBackend(types.GenesisAlloc{
		addr: {Balance: eth.Ether(100).ToBig()},
	})
	t.Cleanup(func() { _ = backend.Close() })

	bsc := &fakeNode{chainID: 97, balances: map[common.Address]*big.Int{addr: eth.Ether(3).ToBig()}}
	dial := func(_ context.Context, url string) (NodeClient, error) {
		switch url {
		case "sim://1337":
			return backend.Client(), nil
		case "fake://97":
			return bsc, nil
		default:
			return nil, errUnreachable
		}
	}

	w, err := NewLocalWallet(testlog.Logger(t, log.LevelDebug), LocalWalletConfig{
		Key:       key,
		Connected: connected,
		Chains:    []AddEthereumChainParameter{simChain()},
		Dial:      dial,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	h := &walletHarness{wallet: w, backend: backend, bsc: bsc, events: make(map[Event][]json.RawMessage)}
	_, err = w.On(AccountsChanged, h.record(AccountsChanged))
	require.NoError(t, err)
	_, err = w.On(ChainChanged, h.record(ChainChanged))
	require.NoError(t, err)
	return h
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	var rerr *RPCError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, code, rerr.Code)
}

func TestLocalWalletAccounts(t *testing.T) {
	h := newWalletHarness(t, false)
	ctx := context.Background()

	accounts, err := Accounts(ctx, h.wallet)
	require.NoError(t, err)
	require.Empty(t, accounts)

	accounts, err = RequestAccounts(ctx, h.wallet)
	require.NoError(t, err)
	require.Equal(t, []common.Address{h.wallet.Account()}, accounts)
	require.Len(t, h.received(AccountsChanged), 1)

	// access already granted, no further notification
	_, err = RequestAccounts(ctx, h.wallet)
	require.NoError(t, err)
	require.Len(t, h.received(AccountsChanged), 1)

	h.wallet.Disconnect()
	got := h.received(AccountsChanged)
	require.Len(t, got, 2)
	decoded, err := DecodeAccounts(got[1])
	require.NoError(t, err)
	require.Empty(t, decoded)

	accounts, err = Accounts(ctx, h.wallet)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestLocalWalletChainAndBalance(t *testing.T) {
	h := newWalletHarness(t, true)
	ctx := context.Background()

	var raw string
	require.NoError(t, h.wallet.Request(ctx, &raw, "eth_chainId"))
	require.Equal(t, "0x539", raw)

	bal, err := Balance(ctx, h.wallet, h.wallet.Account())
	require.NoError(t, err)
	require.Equal(t, "100.00", eth.FormatBalance(bal))
}

func TestLocalWalletAddChain(t *testing.T) {
	h := newWalletHarness(t, true)
	ctx := context.Background()

	t.Run("endpoint of another chain", func(t *testing.T) {
		params := bscChain()
		params.RPCURLs = []string{"sim://1337"}
		requireCode(t, AddChain(ctx, h.wallet, params), CodeInvalidParams)
		require.Empty(t, h.received(ChainChanged))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		params := bscChain()
		params.RPCURLs = []string{"http://nowhere"}
		requireCode(t, AddChain(ctx, h.wallet, params), CodeInternalError)
		require.Empty(t, h.received(ChainChanged))
	})

	t.Run("switches", func(t *testing.T) {
		require.NoError(t, AddChain(ctx, h.wallet, bscChain()))
		got := h.received(ChainChanged)
		require.Len(t, got, 1)
		id, err := DecodeChainID(got[0])
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(97), id)

		id, err = ChainID(ctx, h.wallet)
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(97), id)

		bal, err := Balance(ctx, h.wallet, h.wallet.Account())
		require.NoError(t, err)
		require.Equal(t, "3.00", eth.FormatBalance(bal))
	})

	t.Run("known chain only switches", func(t *testing.T) {
		require.NoError(t, AddChain(ctx, h.wallet, bscChain()))
		require.Len(t, h.received(ChainChanged), 1)
	})

	t.Run("switch back", func(t *testing.T) {
		require.NoError(t, h.wallet.Request(ctx, nil, "wallet_switchEthereumChain", SwitchEthereumChainParameter{ChainID: simChainID}))
		require.Len(t, h.received(ChainChanged), 2)
	})

	t.Run("switch to unknown chain", func(t *testing.T) {
		err := h.wallet.Request(ctx, nil, "wallet_switchEthereumChain", SwitchEthereumChainParameter{ChainID: 5})
		requireCode(t, err, CodeUnrecognizedChain)
	})
}

func TestLocalWalletWatchAsset(t *testing.T) {
	h := newWalletHarness(t, true)
	ctx := context.Background()
	token := common.HexToAddress("0x7f76ebd5f40a4f1e0e4e2cb2dc3cc6f0a8e1dc13")

	ok, err := WatchAsset(ctx, h.wallet, WatchAssetParams{Type: AssetTypeERC20, Options: AssetOptions{Address: token}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []AssetOptions{{Address: token}}, h.wallet.Assets())

	_, err = WatchAsset(ctx, h.wallet, WatchAssetParams{Type: "ERC721", Options: AssetOptions{Address: token}})
	requireCode(t, err, CodeInvalidParams)

	_, err = WatchAsset(ctx, h.wallet, WatchAssetParams{Type: AssetTypeERC20})
	requireCode(t, err, CodeInvalidParams)
}

func TestLocalWalletSendTransaction(t *testing.T) {
	ctx := context.Background()
	recipient := common.HexToAddress("0x1234")

	t.Run("not connected", func(t *testing.T) {
		h := newWalletHarness(t, false)
		_, err := SendTransaction(ctx, h.wallet, TransactionArgs{To: &recipient, Value: (*hexutil.Big)(eth.Ether(1).ToBig())})
		requireCode(t, err, CodeUnauthorized)
	})

	t.Run("lands on chain", func(t *testing.T) {
		h := newWalletHarness(t, true)
		hash, err := SendTransaction(ctx, h.wallet, TransactionArgs{To: &recipient, Value: (*hexutil.Big)(eth.Ether(1).ToBig())})
		require.NoError(t, err)
		h.backend.Commit()

		receipt, err := h.backend.Client().TransactionReceipt(ctx, hash)
		require.NoError(t, err)
		require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

		bal, err := Balance(ctx, h.wallet, recipient)
		require.NoError(t, err)
		require.Equal(t, eth.Ether(1).ToBig(), bal)
	})

	t.Run("foreign sender", func(t *testing.T) {
		h := newWalletHarness(t, true)
		other := common.HexToAddress("0xdead")
		_, err := SendTransaction(ctx, h.wallet, TransactionArgs{From: &other, To: &recipient})
		requireCode(t, err, CodeUnauthorized)
	})
}

func TestLocalWalletListeners(t *testing.T) {
	h := newWalletHarness(t, true)
	require.Equal(t, 1, h.wallet.ListenerCount(AccountsChanged))

	dispose, err := h.wallet.On(AccountsChanged, func(json.RawMessage) {})
	require.NoError(t, err)
	require.Equal(t, 2, h.wallet.ListenerCount(AccountsChanged))
	dispose()
	dispose()
	require.Equal(t, 1, h.wallet.ListenerCount(AccountsChanged))

	_, err = h.wallet.On("connect", func(json.RawMessage) {})
	require.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestLocalWalletUnsupportedMethod(t *testing.T) {
	h := newWalletHarness(t, true)
	err := h.wallet.Request(context.Background(), nil, "eth_sign", h.wallet.Account(), "0x00")
	requireCode(t, err, CodeUnsupportedMethod)

	require.NoError(t, h.wallet.Close())
	err = h.wallet.Request(context.Background(), nil, "eth_chainId")
	requireCode(t, err, CodeDisconnected)
}

func TestContractCaller(t *testing.T) {
	h := newWalletHarness(t, true)
	caller := NewContractCaller(h.wallet)
	code, err := caller.CodeAt(context.Background(), common.HexToAddress("0x1234"), nil)
	require.NoError(t, err)
	require.Empty(t, code)

	// a call to an account without code returns no data
	to := common.HexToAddress("0x1234")
	out, err := caller.CallContract(context.Background(), ethereum.CallMsg{To: &to}, nil)
	require.NoError(t, err)
	require.Empty(t, out)
}
