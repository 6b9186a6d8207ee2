package frontend

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tokenfaucet/faucet-connector/connector/faucet"
)

type FaucetBackend interface {
	SelectToken(token string)
	SetTokenAmount(input string) bool
	Selection() faucet.Selection
	WatchAsset(ctx context.Context, token string) (bool, error)
	RequestToken(ctx context.Context, token string) (common.Hash, error)
	TokenBalance(ctx context.Context, token string) (*big.Int, error)
}

// FaucetFrontend serves the faucet_ namespace.
// Token arguments are optional, an omitted token means the selected one.
type FaucetFrontend struct {
	b      FaucetBackend
	tokens []common.Address
}

func NewFaucetFrontend(b FaucetBackend, tokens []common.Address) *FaucetFrontend {
	return &FaucetFrontend{b: b, tokens: tokens}
}

func (f *FaucetFrontend) Tokens(ctx context.Context) ([]common.Address, error) {
	return append([]common.Address{}, f.tokens...), nil
}

func (f *FaucetFrontend) SelectToken(ctx context.Context, token string) error {
	f.b.SelectToken(token)
	return nil
}

// SetTokenAmount reports whether the input was accepted.
func (f *FaucetFrontend) SetTokenAmount(ctx context.Context, input string) (bool, error) {
	return f.b.SetTokenAmount(input), nil
}

func (f *FaucetFrontend) Selection(ctx context.Context) (faucet.Selection, error) {
	return f.b.Selection(), nil
}

func (f *FaucetFrontend) WatchAsset(ctx context.Context, token *string) (bool, error) {
	return f.b.WatchAsset(ctx, deref(token))
}

func (f *FaucetFrontend) RequestToken(ctx context.Context, token *string) (common.Hash, error) {
	return f.b.RequestToken(ctx, deref(token))
}

func (f *FaucetFrontend) TokenBalance(ctx context.Context, token *string) (*hexutil.Big, error) {
	bal, err := f.b.TokenBalance(ctx, deref(token))
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(bal), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
