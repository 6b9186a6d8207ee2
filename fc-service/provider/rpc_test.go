package provider

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tokenfaucet/faucet-connector/fc-service/testlog"
)

type fakeWalletAPI struct {
	mu       sync.Mutex
	accounts []common.Address
	chainID  hexutil.Uint64

	accountsFeed event.FeedOf[[]common.Address]
}

func (api *fakeWalletAPI) Accounts() []common.Address {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]common.Address{}, api.accounts...)
}

func (api *fakeWalletAPI) ChainId() hexutil.Uint64 {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.chainID
}

func (api *fakeWalletAPI) setAccounts(accounts ...common.Address) {
	api.mu.Lock()
	api.accounts = accounts
	api.mu.Unlock()
	api.accountsFeed.Send(accounts)
}

func (api *fakeWalletAPI) AccountsChanged(ctx context.Context) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	rpcSub := notifier.CreateSubscription()
	ch := make(chan []common.Address, 10)
	feedSub := api.accountsFeed.Subscribe(ch)
	go func() {
		defer feedSub.Unsubscribe()
		for {
			select {
			case accounts := <-ch:
				if err := notifier.Notify(rpcSub.ID, accounts); err != nil {
					return
				}
			case <-rpcSub.Err():
				return
			}
		}
	}()
	return rpcSub, nil
}

func (api *fakeWalletAPI) setChainID(id hexutil.Uint64) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.chainID = id
}

func newFakeWalletServer(t *testing.T, api *fakeWalletAPI) *rpc.Server {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", api))
	t.Cleanup(srv.Stop)
	return srv
}

func collect(h *[]json.RawMessage, mu *sync.Mutex) Handler {
	return func(payload json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		*h = append(*h, payload)
	}
}

func TestRPCProviderSubscription(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	api := &fakeWalletAPI{chainID: 97}
	srv := newFakeWalletServer(t, api)
	p := NewRPCProvider(logger, rpc.DialInProc(srv), time.Hour)
	t.Cleanup(func() { _ = p.Close() })

	chainID, err := ChainID(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(97), chainID)

	var mu sync.Mutex
	var got []json.RawMessage
	dispose, err := p.On(AccountsChanged, collect(&got, &mu))
	require.NoError(t, err)

	addr := common.HexToAddress("0xABC")
	api.setAccounts(addr)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	accounts, err := DecodeAccounts(got[0])
	mu.Unlock()
	require.NoError(t, err)
	require.Equal(t, []common.Address{addr}, accounts)

	dispose()
	dispose()
}

func TestRPCProviderPollingFallback(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	api := &fakeWalletAPI{chainID: 97}
	srv := newFakeWalletServer(t, api)
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	client, err := rpc.DialHTTP(httpSrv.URL)
	require.NoError(t, err)
	p := NewRPCProvider(logger, client, 10*time.Millisecond)
	t.Cleanup(func() { _ = p.Close() })

	var mu sync.Mutex
	var got []json.RawMessage
	dispose, err := p.On(AccountsChanged, collect(&got, &mu))
	require.NoError(t, err)
	defer dispose()

	// let the poller record the initial empty list, which must not be delivered
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	require.Empty(t, got)
	mu.Unlock()

	addr := common.HexToAddress("0xABC")
	api.setAccounts(addr)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

// The fake wallet serves accountsChanged but not chainChanged, like a plain node endpoint.
func TestRPCProviderMissingSubscription(t *testing.T) {
	logger := testlog.Logger(t, log.LevelDebug)
	api := &fakeWalletAPI{chainID: 97}
	srv := newFakeWalletServer(t, api)
	p := NewRPCProvider(logger, rpc.DialInProc(srv), 10*time.Millisecond)
	t.Cleanup(func() { _ = p.Close() })

	var mu sync.Mutex
	var got []json.RawMessage
	dispose, err := p.On(ChainChanged, collect(&got, &mu))
	require.NoError(t, err)
	defer dispose()

	time.Sleep(50 * time.Millisecond)
	api.setChainID(56)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	id, err := DecodeChainID(got[0])
	mu.Unlock()
	require.NoError(t, err)
	require.Equal(t, hexutil.Uint64(56), id)
}

func TestRPCProviderRejectsUnknownEvent(t *testing.T) {
	srv := newFakeWalletServer(t, &fakeWalletAPI{})
	p := NewRPCProvider(testlog.Logger(t, log.LevelInfo), rpc.DialInProc(srv), 0)
	t.Cleanup(func() { _ = p.Close() })
	_, err := p.On("disconnect", func(json.RawMessage) {})
	require.ErrorIs(t, err, ErrUnsupportedEvent)
}

func TestRPCDetector(t *testing.T) {
	logger := testlog.Logger(t, log.LevelInfo)
	ctx := context.Background()

	t.Run("no endpoint", func(t *testing.T) {
		_, err := (&RPCDetector{Log: logger}).Detect(ctx)
		require.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("no wallet answering", func(t *testing.T) {
		empty := rpc.NewServer()
		t.Cleanup(empty.Stop)
		httpSrv := httptest.NewServer(empty)
		t.Cleanup(httpSrv.Close)
		_, err := (&RPCDetector{Log: logger, Endpoint: httpSrv.URL}).Detect(ctx)
		require.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("wallet", func(t *testing.T) {
		srv := newFakeWalletServer(t, &fakeWalletAPI{chainID: 97})
		httpSrv := httptest.NewServer(srv)
		t.Cleanup(httpSrv.Close)
		d := &RPCDetector{Log: logger, Endpoint: httpSrv.URL}
		t.Cleanup(func() { _ = d.Close() })
		p, err := d.Detect(ctx)
		require.NoError(t, err)
		id, err := ChainID(ctx, p)
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(97), id)

		// a second detection replaces the first connection
		next, err := d.Detect(ctx)
		require.NoError(t, err)
		require.NotSame(t, p, next)
		id, err = ChainID(ctx, next)
		require.NoError(t, err)
		require.Equal(t, hexutil.Uint64(97), id)
		require.NoError(t, d.Close())
		require.NoError(t, d.Close())
	})
}
