package faucet

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/log"

	"github.com/tokenfaucet/faucet-connector/bindings"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
	"github.com/tokenfaucet/faucet-connector/fc-service/provider"
	"github.com/tokenfaucet/faucet-connector/fc-service/testlog"
	"github.com/tokenfaucet/faucet-connector/metrics"
)

func simNetwork() network.Network {
	return network.Network{
		ChainID:        1337,
		ChainName:      "Simulated",
		NativeCurrency: network.NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18},
		RPCURLs:        []string{"sim://1337"},
	}
}

// newSimWallet funds a fresh local wallet account with 10 ether on a simulated chain.
func newSimWallet(t *testing.T, logger log.Logger, target network.Network) (*provider.LocalWallet, *simulated.Backend, common.Address) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	backend := simulated.NewBackend(types.GenesisAlloc{
		addr: {Balance: eth.Ether(10).ToBig()},
	})
	t.Cleanup(func() { _ = backend.Close() })

	wallet, err := provider.NewLocalWallet(logger.New("role", "wallet"), provider.LocalWalletConfig{
		Key:    key,
		Chains: []provider.AddEthereumChainParameter{target.AddChainParams()},
		Dial: func(context.Context, string) (provider.NodeClient, error) {
			return backend.Client(), nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = wallet.Close() })
	return wallet, backend, addr
}

// TestRequestTokenLocalWallet runs connect and requestToken against a simulated chain,
// with the invoker bound through the session hook.
func TestRequestTokenLocalWallet(t *testing.T) {
	ctx := context.Background()
	logger := testlog.Logger(t, log.LevelDebug)
	target := simNetwork()
	wallet, backend, addr := newSimWallet(t, logger, target)

	inv, err := NewInvoker(logger, target, faucetAddr, metrics.NoopMetrics{})
	require.NoError(t, err)
	syncer := session.NewSynchronizer(logger, provider.Static(wallet), metrics.NoopMetrics{}, session.WithSessionHook(inv.Bind))
	require.NoError(t, syncer.Initialize(ctx))
	t.Cleanup(func() { _ = syncer.Close() })

	_, err = inv.RequestToken(ctx, tokenAddr.Hex())
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, syncer.Connect(ctx, target))
	require.Equal(t, session.StatusConnectedWithAccounts, syncer.Status())
	require.Equal(t, "10.00", syncer.Session().Balance)
	sel := inv.Selection()
	require.NotNil(t, sel.Signer)
	require.Equal(t, addr, *sel.Signer)

	accepted, err := inv.WatchAsset(ctx, tokenAddr.Hex())
	require.NoError(t, err)
	require.True(t, accepted)
	require.Len(t, wallet.Assets(), 1)

	hash, err := inv.RequestToken(ctx, tokenAddr.Hex())
	require.NoError(t, err)
	backend.Commit()

	receipt, err := backend.Client().TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)

	tx, _, err := backend.Client().TransactionByHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, faucetAddr, *tx.To())
	parsed, err := abi.JSON(strings.NewReader(bindings.FaucetABI))
	require.NoError(t, err)
	want, err := parsed.Pack("requestToken", tokenAddr)
	require.NoError(t, err)
	require.Equal(t, want, tx.Data())

	// disconnecting the wallet removes the signer
	wallet.Disconnect()
	require.Equal(t, session.StatusConnectedEmpty, syncer.Status())
	require.Nil(t, inv.Selection().Signer)
	_, err = inv.RequestToken(ctx, tokenAddr.Hex())
	require.ErrorIs(t, err, ErrNotConnected)
}

// TestRemountLocalWallet unmounts and mounts the same local wallet again, then connects.
func TestRemountLocalWallet(t *testing.T) {
	ctx := context.Background()
	logger := testlog.Logger(t, log.LevelDebug)
	target := simNetwork()
	wallet, _, addr := newSimWallet(t, logger, target)

	inv, err := NewInvoker(logger, target, faucetAddr, metrics.NoopMetrics{})
	require.NoError(t, err)
	syncer := session.NewSynchronizer(logger, provider.Static(wallet), metrics.NoopMetrics{}, session.WithSessionHook(inv.Bind))
	t.Cleanup(func() { _ = syncer.Close() })

	require.NoError(t, syncer.Initialize(ctx))
	require.NoError(t, syncer.Close())
	require.Equal(t, session.StatusUninitialized, syncer.Status())

	require.NoError(t, syncer.Initialize(ctx))
	require.Equal(t, session.StatusConnectedEmpty, syncer.Status())
	require.Equal(t, target.HexChainID(), syncer.Session().ChainID)

	require.NoError(t, syncer.Connect(ctx, target))
	require.Equal(t, session.StatusConnectedWithAccounts, syncer.Status())
	require.Equal(t, []common.Address{addr}, syncer.Session().Accounts)
	require.Equal(t, "10.00", syncer.Session().Balance)
	sel := inv.Selection()
	require.NotNil(t, sel.Signer)
	require.Equal(t, addr, *sel.Signer)
}
