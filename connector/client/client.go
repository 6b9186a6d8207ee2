// Package client is a typed JSON-RPC client of the connector service.
package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tokenfaucet/faucet-connector/connector/faucet"
	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
)

type RPC interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
	Subscribe(ctx context.Context, namespace string, channel any, args ...any) (*rpc.ClientSubscription, error)
	Close()
}

type ConnectorClient struct {
	client RPC
}

func NewConnectorClient(client RPC) *ConnectorClient {
	return &ConnectorClient{client: client}
}

func Dial(ctx context.Context, endpoint string) (*ConnectorClient, error) {
	cl, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return NewConnectorClient(cl), nil
}

func (cl *ConnectorClient) Close() {
	cl.client.Close()
}

func (cl *ConnectorClient) Health(ctx context.Context) (string, error) {
	var result string
	err := cl.client.CallContext(ctx, &result, "health_status")
	return result, err
}

func (cl *ConnectorClient) Status(ctx context.Context) (session.Status, error) {
	var result session.Status
	err := cl.client.CallContext(ctx, &result, "wallet_status")
	return result, err
}

func (cl *ConnectorClient) Session(ctx context.Context) (session.Session, error) {
	var result session.Session
	err := cl.client.CallContext(ctx, &result, "wallet_session")
	return result, err
}

func (cl *ConnectorClient) Network(ctx context.Context) (network.Network, error) {
	var result network.Network
	err := cl.client.CallContext(ctx, &result, "wallet_network")
	return result, err
}

func (cl *ConnectorClient) AccountURL(ctx context.Context) (string, error) {
	var result string
	err := cl.client.CallContext(ctx, &result, "wallet_accountURL")
	return result, err
}

func (cl *ConnectorClient) Connect(ctx context.Context) (session.Session, error) {
	var result session.Session
	err := cl.client.CallContext(ctx, &result, "wallet_connect")
	return result, err
}

func (cl *ConnectorClient) Refresh(ctx context.Context) (session.Session, error) {
	var result session.Session
	err := cl.client.CallContext(ctx, &result, "wallet_refresh")
	return result, err
}

// SubscribeSessions delivers every session the service publishes to ch. It needs a websocket or IPC endpoint.
func (cl *ConnectorClient) SubscribeSessions(ctx context.Context, ch chan<- session.Session) (*rpc.ClientSubscription, error) {
	return cl.client.Subscribe(ctx, "wallet", ch, "sessions")
}

func (cl *ConnectorClient) Tokens(ctx context.Context) ([]common.Address, error) {
	var result []common.Address
	err := cl.client.CallContext(ctx, &result, "faucet_tokens")
	return result, err
}

func (cl *ConnectorClient) SelectToken(ctx context.Context, token string) error {
	return cl.client.CallContext(ctx, nil, "faucet_selectToken", token)
}

func (cl *ConnectorClient) SetTokenAmount(ctx context.Context, input string) (bool, error) {
	var result bool
	err := cl.client.CallContext(ctx, &result, "faucet_setTokenAmount", input)
	return result, err
}

func (cl *ConnectorClient) Selection(ctx context.Context) (faucet.Selection, error) {
	var result faucet.Selection
	err := cl.client.CallContext(ctx, &result, "faucet_selection")
	return result, err
}

// WatchAsset asks the wallet to track the token. An empty token uses the selected one.
func (cl *ConnectorClient) WatchAsset(ctx context.Context, token string) (bool, error) {
	var result bool
	err := cl.client.CallContext(ctx, &result, "faucet_watchAsset", tokenArgs(token)...)
	return result, err
}

func (cl *ConnectorClient) RequestToken(ctx context.Context, token string) (common.Hash, error) {
	var result common.Hash
	err := cl.client.CallContext(ctx, &result, "faucet_requestToken", tokenArgs(token)...)
	return result, err
}

func (cl *ConnectorClient) TokenBalance(ctx context.Context, token string) (*big.Int, error) {
	var result hexutil.Big
	if err := cl.client.CallContext(ctx, &result, "faucet_tokenBalance", tokenArgs(token)...); err != nil {
		return nil, err
	}
	return result.ToInt(), nil
}

func tokenArgs(token string) []any {
	if token == "" {
		return nil
	}
	return []any{token}
}
