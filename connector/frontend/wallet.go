package frontend

import (
	"context"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tokenfaucet/faucet-connector/connector/network"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	fcrpc "github.com/tokenfaucet/faucet-connector/fc-service/rpc"
)

type WalletBackend interface {
	Status() session.Status
	Session() session.Session
	Network() network.Network
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error
	SubscribeSession(ch chan<- session.Session) event.Subscription
}

// WalletFrontend serves the wallet_ namespace.
type WalletFrontend struct {
	log log.Logger
	b   WalletBackend
}

func NewWalletFrontend(logger log.Logger, b WalletBackend) *WalletFrontend {
	return &WalletFrontend{log: logger, b: b}
}

func (w *WalletFrontend) Session(ctx context.Context) (session.Session, error) {
	return w.b.Session(), nil
}

func (w *WalletFrontend) Status(ctx context.Context) (session.Status, error) {
	return w.b.Status(), nil
}

func (w *WalletFrontend) Network(ctx context.Context) (network.Network, error) {
	return w.b.Network(), nil
}

// AccountURL links the connected account on the block explorer of the target network.
func (w *WalletFrontend) AccountURL(ctx context.Context) (string, error) {
	account, ok := w.b.Session().Account()
	if !ok {
		return "", nil
	}
	return w.b.Network().AccountURL(account), nil
}

// Connect switches the wallet to the target network and requests account access.
// The resulting session is returned.
func (w *WalletFrontend) Connect(ctx context.Context) (session.Session, error) {
	if err := w.b.Connect(ctx); err != nil {
		return session.Session{}, err
	}
	return w.b.Session(), nil
}

func (w *WalletFrontend) Refresh(ctx context.Context) (session.Session, error) {
	if err := w.b.Refresh(ctx); err != nil {
		return session.Session{}, err
	}
	return w.b.Session(), nil
}

// Sessions streams every published session, through wallet_subscribe("sessions").
func (w *WalletFrontend) Sessions(ctx context.Context) (*rpc.Subscription, error) {
	return fcrpc.SubscribeRPC[session.Session](ctx, w.log.New("subscription", "sessions"), feed{w.b})
}

type feed struct {
	b WalletBackend
}

func (f feed) Subscribe(ch chan<- session.Session) event.Subscription {
	return f.b.SubscribeSession(ch)
}
